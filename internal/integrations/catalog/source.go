package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	maxPageBytes     = 4 << 20
	defaultUserAgent = "Mozilla/5.0 (compatible; shop-assistant/1.0)"
)

// HTTPStatusError captures non-2xx storefront responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// HTTPSource fetches server-rendered pages with a plain GET.
type HTTPSource struct {
	client    *http.Client
	userAgent string
}

func NewHTTPSource(client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSource{client: client, userAgent: defaultUserAgent}
}

func (s *HTTPSource) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("catalog: create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("catalog: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return "", &HTTPStatusError{StatusCode: res.StatusCode, URL: url}
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("catalog: read body: %w", err)
	}
	return string(body), nil
}

// RodSource renders pages in headless Chrome so listings injected by
// client-side scripts are present in the returned markup.
type RodSource struct {
	browser *rod.Browser
}

// NewRodSource launches a local headless browser, or connects to controlURL
// when one is given.
func NewRodSource(ctx context.Context, controlURL string) (*RodSource, error) {
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Set("no-sandbox").Set("disable-dev-shm-usage").Launch()
		if err != nil {
			return nil, fmt.Errorf("catalog: launch browser: %w", err)
		}
		controlURL = u
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("catalog: connect browser: %w", err)
	}
	return &RodSource{browser: browser}, nil
}

func (s *RodSource) FetchHTML(ctx context.Context, url string) (string, error) {
	if s.browser == nil {
		return "", errors.New("catalog: browser not connected")
	}
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("catalog: open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("catalog: wait load: %w", err)
	}
	out, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("catalog: read page html: %w", err)
	}
	return out, nil
}

func (s *RodSource) Close() error {
	if s.browser == nil {
		return nil
	}
	return s.browser.Close()
}
