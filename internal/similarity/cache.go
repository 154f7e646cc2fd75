package similarity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const defaultCacheEntries = 4096

// CachingEncoder memoizes embeddings per text. The greeting corpus and the
// name exemplars are re-scored every turn, so most lookups hit. Concurrent
// misses for the same batch share one upstream call.
type CachingEncoder struct {
	inner      Encoder
	maxEntries int

	mu    sync.RWMutex
	cache map[string][]float32
	group singleflight.Group
}

func NewCachingEncoder(inner Encoder, maxEntries int) (*CachingEncoder, error) {
	if inner == nil {
		return nil, errors.New("similarity: inner encoder must not be nil")
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &CachingEncoder{
		inner:      inner,
		maxEntries: maxEntries,
		cache:      make(map[string][]float32),
	}, nil
}

func (c *CachingEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	misses := c.missing(texts)
	if len(misses) > 0 {
		key := strings.Join(misses, "\x00")
		ch := c.group.DoChan(key, func() (interface{}, error) {
			shared, cancel := detach(ctx)
			defer cancel()
			return c.inner.Embed(shared, misses)
		})
		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		if res.Err != nil {
			return nil, res.Err
		}
		vecs := res.Val.([][]float32)
		if len(vecs) != len(misses) {
			return nil, errors.New("similarity: encoder returned wrong number of vectors")
		}
		c.store(misses, vecs)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, ok := c.cache[t]
		if !ok {
			// Evicted between store and read; rare under the entry cap.
			return c.inner.Embed(ctx, texts)
		}
		out[i] = vec
	}
	return out, nil
}

// missing returns the distinct texts with no cached vector, in first-seen order.
func (c *CachingEncoder) missing(texts []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool, len(texts))
	var out []string
	for _, t := range texts {
		if _, ok := c.cache[t]; ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (c *CachingEncoder) store(texts []string, vecs [][]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cache)+len(texts) > c.maxEntries {
		c.cache = make(map[string][]float32, len(texts))
	}
	for i, t := range texts {
		c.cache[t] = vecs[i]
	}
}

// detach keeps ctx's values and deadline but not its cancellation, so one
// caller giving up does not fail the others sharing the call.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	shared := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(shared, deadline)
	}
	return shared, func() {}
}
