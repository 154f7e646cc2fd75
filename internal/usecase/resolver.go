package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"shop-assistant/internal/domain"
	"shop-assistant/internal/similarity"
)

type KnowledgeStore interface {
	UserName(ctx context.Context, userID string) (string, bool, error)
	SetUserName(ctx context.Context, userID, name string) error
	AppendChatTurn(ctx context.Context, turn domain.ChatTurn) error
	RecordQA(ctx context.Context, qa domain.QAPair) error
	FindStoredAnswer(ctx context.Context, question string) (string, bool, error)
	ListGreetingPhrases(ctx context.Context) ([]string, error)
	GreetingReply(ctx context.Context, phrase string) (string, bool, error)
}

type Matcher interface {
	BestMatch(ctx context.Context, query string, candidates []string) (similarity.Match, error)
	AnyAbove(ctx context.Context, query string, exemplars []string, threshold float64) (bool, error)
}

type CatalogSearcher interface {
	Search(ctx context.Context, term string) ([]domain.ProductListing, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var errEmptyGeneration = errors.New("usecase: generator returned empty text")

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Resolver turns one utterance and the user's session into replies.
type Resolver struct {
	knowledge KnowledgeStore
	matcher   Matcher
	catalog   CatalogSearcher
	generator Generator
	logger    *zap.Logger
	now       func() time.Time
}

type ResolveInput struct {
	UserID  string
	Text    string
	Session domain.SessionState
}

type ResolveOutput struct {
	Replies []domain.Reply
	Session domain.SessionState
}

func NewResolver(k KnowledgeStore, m Matcher, c CatalogSearcher, g Generator, logger *zap.Logger) (*Resolver, error) {
	if k == nil {
		return nil, errors.New("usecase: knowledge store must not be nil")
	}
	if m == nil {
		return nil, errors.New("usecase: matcher must not be nil")
	}
	if c == nil {
		return nil, errors.New("usecase: catalog must not be nil")
	}
	if g == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{knowledge: k, matcher: m, catalog: c, generator: g, logger: logger, now: time.Now}, nil
}

// turn is the working state of one Resolve call.
type turn struct {
	userID      string
	text        string
	session     domain.SessionState
	replies     []domain.Reply
	nameHandled bool

	name       string
	nameLoaded bool
}

func (t *turn) reply(text string, options ...domain.QuickReplyOption) {
	t.replies = append(t.replies, domain.NewReply(text, slices.Clone(options)...))
}

type rule struct {
	name  string
	apply func(ctx context.Context, t *turn)
}

func (r *Resolver) intentRules() []rule {
	return []rule{
		{name: "menu", apply: r.menu},
		{name: "search", apply: r.search},
		{name: "sort", apply: r.sort},
		{name: "ceiling", apply: r.ceiling},
		{name: "show_all", apply: r.showAll},
		{name: "name", apply: r.nameRule},
		{name: "name_paraphrase", apply: r.nameParaphrase},
	}
}

// Resolve evaluates the intent rules in order; each matching rule adds at most
// one reply. When none of them replies, the knowledge chain (greeting, stored
// answer, generation) produces exactly one reply.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (ResolveOutput, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return ResolveOutput{}, newError(ErrorInvalidInput, "empty_user_id", nil)
	}
	text := stripPoliteness(in.Text)
	if text == "" {
		return ResolveOutput{}, newError(ErrorInvalidInput, "empty_text", nil)
	}

	t := &turn{userID: userID, text: text, session: in.Session}
	for _, rl := range r.intentRules() {
		rl.apply(ctx, t)
	}
	if len(t.replies) == 0 {
		r.answer(ctx, t)
	}
	return ResolveOutput{Replies: t.replies, Session: t.session}, nil
}

func (r *Resolver) menu(_ context.Context, t *turn) {
	for _, e := range menuTable {
		if strings.Contains(t.text, e.trigger) {
			t.reply(e.prompt, e.options...)
			return
		}
	}
}

func (r *Resolver) search(_ context.Context, t *turn) {
	if !strings.Contains(t.text, kwSearch) {
		return
	}
	term := strings.TrimSpace(strings.ReplaceAll(t.text, kwSearch, ""))
	if term == "" {
		t.reply(msgAskSearchTerm)
		return
	}
	t.session = t.session.WithTerm(term)
	t.reply(msgAskCeiling, searchPromptOptions...)
}

func (r *Resolver) sort(ctx context.Context, t *turn) {
	if strings.Contains(t.text, kwSortMenu) {
		t.reply(msgChooseSort, sortMenuOptions...)
		return
	}
	asc, desc := strings.Contains(t.text, kwSortAsc), strings.Contains(t.text, kwSortDesc)
	if !asc && !desc {
		return
	}
	items, ok := r.fetchPriced(ctx, t, "sort")
	if !ok {
		return
	}
	if ceiling, set := t.session.Ceiling(); t.session.LowerFilterActive && set {
		items = below(items, ceiling)
	}
	if len(items) == 0 {
		t.reply(msgNoProducts)
		return
	}
	sortByPrice(items, !asc)
	t.reply(RenderListings(listingsOf(items)))
}

func (r *Resolver) ceiling(ctx context.Context, t *turn) {
	if !strings.Contains(t.text, kwCeiling) {
		return
	}
	ceiling, ok := ParseCeiling(t.text)
	if !ok {
		// No amount given: treat like show-all.
		t.session.PriceCeiling = nil
		t.session.LowerFilterActive = false
		r.renderAll(ctx, t, "ceiling")
		return
	}
	t.session = t.session.WithCeiling(ceiling)
	t.session.LowerFilterActive = true

	items, ok := r.fetchPriced(ctx, t, "ceiling")
	if !ok {
		return
	}
	items = below(items, ceiling)
	if len(items) == 0 {
		t.reply(msgNoProducts)
		return
	}
	t.reply(RenderListings(listingsOf(items)), ceilingOptions...)
}

func (r *Resolver) showAll(ctx context.Context, t *turn) {
	if !strings.Contains(t.text, kwShowAll) {
		return
	}
	t.session.LowerFilterActive = false
	r.renderAll(ctx, t, "show_all")
}

func (r *Resolver) renderAll(ctx context.Context, t *turn, stage string) {
	items, ok := r.fetchPriced(ctx, t, stage)
	if !ok {
		return
	}
	if len(items) == 0 {
		t.reply(msgNoProducts)
		return
	}
	t.reply(RenderListings(listingsOf(items)), showAllOptions...)
}

// fetchPriced searches the session's term and keeps listings with a usable
// price. It replies itself and returns false when there is nothing to list.
func (r *Resolver) fetchPriced(ctx context.Context, t *turn, stage string) ([]pricedListing, bool) {
	term, ok := t.session.Term()
	if !ok {
		t.reply(msgSearchFirst)
		return nil, false
	}
	listings, err := r.catalog.Search(ctx, term)
	if err != nil {
		r.warn(t, stage, "catalog search failed", err)
		t.reply(msgNoProducts)
		return nil, false
	}
	if len(listings) == 0 {
		t.reply(msgNoProducts)
		return nil, false
	}
	return pricedOnly(listings), true
}

func (r *Resolver) nameRule(ctx context.Context, t *turn) {
	if !strings.Contains(t.text, kwName) {
		return
	}
	if strings.Contains(t.text, kwWhat) {
		t.nameHandled = true
		if name, ok := r.userName(ctx, t); ok {
			t.reply(fmt.Sprintf(msgNameIsFmt, name))
		} else {
			t.reply(msgNameUnknown)
		}
		return
	}
	if strings.Contains(t.text, kwBelieve) {
		return
	}

	t.nameHandled = true
	name := strings.TrimSpace(t.text[strings.LastIndex(t.text, kwName)+len(kwName):])
	if name == "" {
		t.reply(msgNameMissing)
		return
	}
	if err := r.knowledge.SetUserName(ctx, t.userID, name); err != nil {
		r.warn(t, "name", "save user name failed", err)
	} else {
		t.name, t.nameLoaded = name, true
	}
	t.reply(fmt.Sprintf(msgNameThanksFmt, name))
}

func (r *Resolver) nameParaphrase(ctx context.Context, t *turn) {
	if t.nameHandled {
		return
	}
	name, ok := r.userName(ctx, t)
	if !ok {
		return
	}
	similar, err := r.matcher.AnyAbove(ctx, t.text, nameQueryExemplars, nameQueryThreshold)
	if err != nil {
		r.warn(t, "name_paraphrase", "similarity check failed", err)
		return
	}
	if similar {
		t.reply(fmt.Sprintf(msgNameIsFmt, name))
	}
}

// answer runs the knowledge chain and always adds exactly one reply.
func (r *Resolver) answer(ctx context.Context, t *turn) {
	if reply, ok := r.greeting(ctx, t); ok {
		r.logTurn(ctx, t, reply+suffixKa)
		t.reply(reply + suffixKa)
		return
	}

	stored, ok, err := r.knowledge.FindStoredAnswer(ctx, t.text)
	if err != nil {
		r.warn(t, "stored_answer", "stored answer lookup failed", err)
	}
	if ok {
		r.logTurn(ctx, t, stored+suffixKa)
		t.reply(stored + suffixKa)
		return
	}

	name, _ := r.userName(ctx, t)
	generated, err := r.generator.Generate(ctx, buildGenerationPrompt(name, t.text))
	if err != nil {
		fields := []zap.Field{}
		if status, ok := upstreamStatusCode(err); ok {
			fields = append(fields, zap.Int("status", status))
		}
		r.warn(t, "generation", "generation failed", err, fields...)
		t.reply(msgGenerationFail)
		return
	}
	generated = strings.TrimSpace(generated)
	if generated == "" {
		r.warn(t, "generation", "generation returned no text", errEmptyGeneration)
		t.reply(msgGenerationFail)
		return
	}
	if err := r.knowledge.RecordQA(ctx, domain.QAPair{
		UserID:    t.userID,
		Question:  t.text,
		Answer:    generated,
		CreatedAt: r.now().UTC(),
	}); err != nil {
		r.warn(t, "generation", "record qa failed", err)
	}
	r.logTurn(ctx, t, generated+suffixKrb)
	t.reply(generated + suffixKrb)
}

// greeting returns the canned reply of the closest corpus phrase when it
// scores above the greeting threshold.
func (r *Resolver) greeting(ctx context.Context, t *turn) (string, bool) {
	phrases, err := r.knowledge.ListGreetingPhrases(ctx)
	if err != nil {
		r.warn(t, "greeting", "list greetings failed", err)
		return "", false
	}
	if len(phrases) == 0 {
		return "", false
	}
	best, err := r.matcher.BestMatch(ctx, t.text, phrases)
	if err != nil {
		r.warn(t, "greeting", "greeting match failed", err)
		return "", false
	}
	if best.Score <= greetingThreshold {
		return "", false
	}
	reply, ok, err := r.knowledge.GreetingReply(ctx, best.Candidate)
	if err != nil {
		r.warn(t, "greeting", "greeting reply lookup failed", err)
		return "", false
	}
	if !ok || strings.TrimSpace(reply) == "" {
		return "", false
	}
	return reply, true
}

// userName loads the stored name once per turn.
func (r *Resolver) userName(ctx context.Context, t *turn) (string, bool) {
	if !t.nameLoaded {
		name, _, err := r.knowledge.UserName(ctx, t.userID)
		if err != nil {
			r.warn(t, "name", "load user name failed", err)
		}
		t.name, t.nameLoaded = name, true
	}
	return t.name, t.name != ""
}

func (r *Resolver) logTurn(ctx context.Context, t *turn, reply string) {
	err := r.knowledge.AppendChatTurn(ctx, domain.ChatTurn{
		UserID:    t.userID,
		Message:   t.text,
		Reply:     reply,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		r.warn(t, "chat_history", "append chat turn failed", err)
	}
}

func (r *Resolver) warn(t *turn, stage, msg string, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("user_id", t.userID),
		zap.String("stage", stage),
		zap.Error(err),
	}, extra...)
	r.logger.Warn(msg, fields...)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
