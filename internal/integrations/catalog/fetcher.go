// Package catalog searches the storefront and extracts product listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"shop-assistant/internal/domain"
)

const (
	defaultBaseURL     = "https://www.fpvthai.com"
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 2
	attemptBackoff     = 500 * time.Millisecond
)

// PageSource returns the markup of a storefront page.
type PageSource interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Config holds fetcher settings.
type Config struct {
	BaseURL     string
	Timeout     time.Duration // bounds one Search call including retries
	MaxAttempts int
}

type Fetcher struct {
	source      PageSource
	baseURL     string
	timeout     time.Duration
	maxAttempts int
	logger      *zap.Logger
}

func NewFetcher(source PageSource, cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if source == nil {
		return nil, errors.New("catalog: page source must not be nil")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:      source,
		baseURL:     base,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
	}, nil
}

func (f *Fetcher) searchURL(term string) string {
	return f.baseURL + "/search?q=" + url.QueryEscape(term)
}

// Search returns the storefront's listings for term in page order. It returns
// nil, nil when the page has no listings.
func (f *Fetcher) Search(ctx context.Context, term string) ([]domain.ProductListing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	target := f.searchURL(term)
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("catalog: search %q: %w", term, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * attemptBackoff):
			}
		}

		page, err := f.source.FetchHTML(ctx, target)
		if err != nil {
			lastErr = err
			f.logger.Warn("catalog fetch attempt failed",
				zap.String("term", term),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			var statusErr *HTTPStatusError
			if ctx.Err() != nil || (errors.As(err, &statusErr) && statusErr.StatusCode < 500) {
				break
			}
			continue
		}

		listings, err := ParseListings(strings.NewReader(page), f.baseURL)
		if err != nil {
			return nil, err
		}
		if len(listings) == 0 {
			return nil, nil
		}
		return listings, nil
	}
	return nil, fmt.Errorf("catalog: search %q: %w", term, lastErr)
}
