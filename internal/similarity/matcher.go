// Package similarity scores semantic closeness between utterances using
// sentence embeddings and cosine similarity.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const defaultEncodeTimeout = 10 * time.Second

// ErrNoCandidates is returned by BestMatch when there is nothing to compare against.
var ErrNoCandidates = errors.New("similarity: no candidates")

// Encoder turns texts into embedding vectors, one per input, in input order.
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is the best-scoring candidate for a query.
type Match struct {
	Index     int
	Candidate string
	Score     float64
}

type Matcher struct {
	enc     Encoder
	timeout time.Duration
}

func NewMatcher(enc Encoder, timeout time.Duration) (*Matcher, error) {
	if enc == nil {
		return nil, errors.New("similarity: encoder must not be nil")
	}
	if timeout <= 0 {
		timeout = defaultEncodeTimeout
	}
	return &Matcher{enc: enc, timeout: timeout}, nil
}

// Similarity returns the cosine similarity of a and b in [-1, 1].
func (m *Matcher) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := m.encode(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return Cosine(vecs[0], vecs[1]), nil
}

// BestMatch scores query against every candidate and returns the highest.
// Ties keep the lowest index.
func (m *Matcher) BestMatch(ctx context.Context, query string, candidates []string) (Match, error) {
	if len(candidates) == 0 {
		return Match{Index: -1}, ErrNoCandidates
	}
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	texts = append(texts, candidates...)
	vecs, err := m.encode(ctx, texts)
	if err != nil {
		return Match{Index: -1}, err
	}

	scores := Scores(vecs[0], vecs[1:])
	best := Argmax(scores)
	return Match{Index: best, Candidate: candidates[best], Score: scores[best]}, nil
}

// AnyAbove reports whether query scores strictly above threshold against any
// exemplar.
func (m *Matcher) AnyAbove(ctx context.Context, query string, exemplars []string, threshold float64) (bool, error) {
	match, err := m.BestMatch(ctx, query, exemplars)
	if err != nil {
		if errors.Is(err, ErrNoCandidates) {
			return false, nil
		}
		return false, err
	}
	return match.Score > threshold, nil
}

func (m *Matcher) encode(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	vecs, err := m.enc.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("similarity: encode: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("similarity: encoder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Scores returns cos(corpus[i], query) for every corpus vector. The result is
// a flat vector with one score per corpus entry.
func Scores(query []float32, corpus [][]float32) []float64 {
	out := make([]float64, len(corpus))
	for i, v := range corpus {
		out[i] = Cosine(v, query)
	}
	return out
}

// Argmax returns the first index of the maximum score, or -1 for no scores.
func Argmax(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best == -1 || s > scores[best] {
			best = i
		}
	}
	return best
}

// Cosine computes the cosine similarity of two vectors. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp to [-1, 1] due to floating point errors
	return math.Max(-1, math.Min(1, sim))
}
