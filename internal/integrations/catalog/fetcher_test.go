package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type fakeSource struct {
	pages []string
	errs  []error
	urls  []string
	delay time.Duration
}

func (f *fakeSource) FetchHTML(ctx context.Context, target string) (string, error) {
	i := len(f.urls)
	f.urls = append(f.urls, target)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return f.pages[len(f.pages)-1], nil
}

func mustParse(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func newTestFetcher(t *testing.T, src PageSource, cfg Config) *Fetcher {
	t.Helper()
	f, err := NewFetcher(src, cfg, nil)
	require.NoError(t, err)
	return f
}

func TestNewFetcher_Validates(t *testing.T) {
	_, err := NewFetcher(nil, Config{}, nil)
	require.Error(t, err)

	f := newTestFetcher(t, &fakeSource{}, Config{})
	require.Equal(t, defaultBaseURL, f.baseURL)
	require.Equal(t, defaultTimeout, f.timeout)
	require.Equal(t, defaultMaxAttempts, f.maxAttempts)
}

func TestFetcher_Search_BuildsQueryURL(t *testing.T) {
	src := &fakeSource{pages: []string{searchPage}}
	f := newTestFetcher(t, src, Config{BaseURL: "https://www.fpvthai.com/"})

	got, err := f.Search(context.Background(), " แบตเตอรี่ 4s ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, []string{"https://www.fpvthai.com/search?q=" + url.QueryEscape("แบตเตอรี่ 4s")}, src.urls)
}

func TestFetcher_Search_EmptyTermSkipsFetch(t *testing.T) {
	src := &fakeSource{pages: []string{searchPage}}
	got, err := newTestFetcher(t, src, Config{}).Search(context.Background(), "  ")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, src.urls)
}

func TestFetcher_Search_NoListingsReturnsNil(t *testing.T) {
	src := &fakeSource{pages: []string{`<html><body></body></html>`}}
	got, err := newTestFetcher(t, src, Config{}).Search(context.Background(), "drone")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFetcher_Search_RetriesTransientFailure(t *testing.T) {
	src := &fakeSource{
		pages: []string{"", searchPage},
		errs:  []error{errors.New("connection reset"), nil},
	}
	got, err := newTestFetcher(t, src, Config{MaxAttempts: 2}).Search(context.Background(), "battery")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, src.urls, 2)
}

func TestFetcher_Search_DoesNotRetryClientErrors(t *testing.T) {
	src := &fakeSource{
		pages: []string{""},
		errs:  []error{&HTTPStatusError{StatusCode: http.StatusNotFound}},
	}
	_, err := newTestFetcher(t, src, Config{MaxAttempts: 3}).Search(context.Background(), "battery")
	require.Error(t, err)
	require.Len(t, src.urls, 1)
}

func TestFetcher_Search_Timeout(t *testing.T) {
	src := &fakeSource{pages: []string{searchPage}, delay: 300 * time.Millisecond}
	f := newTestFetcher(t, src, Config{Timeout: 30 * time.Millisecond, MaxAttempts: 3})

	_, err := f.Search(context.Background(), "battery")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, src.urls, 1)
}

func TestHTTPSource_FetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "battery", r.URL.Query().Get("q"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	f := newTestFetcher(t, NewHTTPSource(srv.Client()), Config{BaseURL: srv.URL})
	got, err := f.Search(context.Background(), "battery")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, srv.URL+"/products/tattu-450-4s", got[0].Link)
}

func TestHTTPSource_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.Client()).FetchHTML(context.Background(), srv.URL)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.HTTPStatusCode())
}
