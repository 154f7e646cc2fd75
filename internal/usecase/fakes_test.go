package usecase

import (
	"context"
	"errors"
	"sync"

	"shop-assistant/internal/domain"
	"shop-assistant/internal/similarity"
)

type fakeKnowledge struct {
	mu        sync.Mutex
	names     map[string]string
	greetings []domain.GreetingEntry
	answers   map[string]string
	qa        []domain.QAPair
	chats     []domain.ChatTurn

	nameErr     error
	setNameErr  error
	greetingErr error
	answerErr   error
}

func newFakeKnowledge() *fakeKnowledge {
	return &fakeKnowledge{names: map[string]string{}, answers: map[string]string{}}
}

func (f *fakeKnowledge) UserName(_ context.Context, userID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameErr != nil {
		return "", false, f.nameErr
	}
	n, ok := f.names[userID]
	return n, ok, nil
}

func (f *fakeKnowledge) SetUserName(_ context.Context, userID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setNameErr != nil {
		return f.setNameErr
	}
	f.names[userID] = name
	return nil
}

func (f *fakeKnowledge) AppendChatTurn(_ context.Context, turn domain.ChatTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, turn)
	return nil
}

func (f *fakeKnowledge) RecordQA(_ context.Context, qa domain.QAPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qa = append(f.qa, qa)
	f.answers[qa.Question] = qa.Answer
	return nil
}

func (f *fakeKnowledge) FindStoredAnswer(_ context.Context, question string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answerErr != nil {
		return "", false, f.answerErr
	}
	a, ok := f.answers[question]
	return a, ok, nil
}

func (f *fakeKnowledge) ListGreetingPhrases(_ context.Context) ([]string, error) {
	if f.greetingErr != nil {
		return nil, f.greetingErr
	}
	out := make([]string, 0, len(f.greetings))
	for _, g := range f.greetings {
		out = append(out, g.Phrase)
	}
	return out, nil
}

func (f *fakeKnowledge) GreetingReply(_ context.Context, phrase string) (string, bool, error) {
	for _, g := range f.greetings {
		if g.Phrase == phrase {
			return g.Reply, true, nil
		}
	}
	return "", false, nil
}

// fakeMatcher scores queries from fixed tables instead of embeddings.
type fakeMatcher struct {
	best       map[string]similarity.Match
	paraphrase map[string]bool
	err        error
	calls      int
}

func (f *fakeMatcher) BestMatch(_ context.Context, query string, candidates []string) (similarity.Match, error) {
	f.calls++
	if f.err != nil {
		return similarity.Match{}, f.err
	}
	if len(candidates) == 0 {
		return similarity.Match{}, similarity.ErrNoCandidates
	}
	if m, ok := f.best[query]; ok {
		return m, nil
	}
	return similarity.Match{Index: 0, Candidate: candidates[0], Score: 0.1}, nil
}

func (f *fakeMatcher) AnyAbove(_ context.Context, query string, _ []string, _ float64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.paraphrase[query], nil
}

type fakeCatalog struct {
	listings []domain.ProductListing
	err      error
	terms    []string
}

func (f *fakeCatalog) Search(_ context.Context, term string) ([]domain.ProductListing, error) {
	f.terms = append(f.terms, term)
	return f.listings, f.err
}

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

var errBoom = errors.New("boom")
