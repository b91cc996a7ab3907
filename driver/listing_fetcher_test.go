package driver

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reddit-listener/config"
	"reddit-listener/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func fetcherConfig(baseURL string) *config.Config {
	return &config.Config{
		Reddit: config.RedditConfig{
			BaseURL:      baseURL,
			UserAgent:    "test-agent/1.0",
			Timeout:      2 * time.Second,
			MinInterval:  time.Millisecond,
			MaxPages:     20,
			MaxBodyBytes: 1 << 20,
		},
		Retry: config.RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     time.Millisecond,
			MaxDelay:      5 * time.Millisecond,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
	}
}

const pageWithCursor = `<html><body>
<shreddit-post permalink="/r/golang/comments/abc/"></shreddit-post>
<faceplate-partial src="/svc/shreddit/community-more-posts/new/?name=golang&amp;after=t3_xyz789"></faceplate-partial>
</body></html>`

const lastPage = `<html><body>
<shreddit-post permalink="/r/golang/comments/def/"></shreddit-post>
</body></html>`

func TestListingFetcher_Fetch(t *testing.T) {
	t.Run("should send a realistic client identifier and return the cursor", func(t *testing.T) {
		var gotUA atomic.Value

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA.Store(r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(pageWithCursor))
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		page, err := f.Fetch(context.Background(), "golang", "")

		require.NoError(t, err)
		assert.Equal(t, "test-agent/1.0", gotUA.Load())
		assert.Equal(t, "golang", page.Subreddit)
		assert.True(t, page.HasMore)
		assert.Equal(t, "t3_xyz789", page.NextCursor)
		assert.False(t, page.FetchedAt.IsZero())
	})

	t.Run("should signal no more pages when the markup has no cursor", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(lastPage))
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		page, err := f.Fetch(context.Background(), "golang", "")

		require.NoError(t, err)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("should pass the cursor as the after parameter", func(t *testing.T) {
		var gotAfter atomic.Value

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAfter.Store(r.URL.Query().Get("after"))
			_, _ = w.Write([]byte(lastPage))
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		_, err := f.Fetch(context.Background(), "golang", "t3_cursor1")

		require.NoError(t, err)
		assert.Equal(t, "t3_cursor1", gotAfter.Load())
	})

	t.Run("should retry rate-limited responses and then succeed", func(t *testing.T) {
		var attempts atomic.Int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(lastPage))
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		page, err := f.Fetch(context.Background(), "golang", "")

		require.NoError(t, err)
		assert.Equal(t, int32(3), attempts.Load())
		assert.NotEmpty(t, page.HTML)
	})

	t.Run("should surface not-found immediately without retrying", func(t *testing.T) {
		var attempts atomic.Int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		_, err := f.Fetch(context.Background(), "doesnotexist", "")

		require.Error(t, err)
		assert.Equal(t, domain.FetchCauseNotFound, domain.FetchCauseOf(err))
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("should tag rate-limited failure after retries are exhausted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		_, err := f.Fetch(context.Background(), "golang", "")

		require.Error(t, err)
		assert.Equal(t, domain.FetchCauseRateLimited, domain.FetchCauseOf(err))
	})

	t.Run("should cap an oversized page at the body limit and log it", func(t *testing.T) {
		oversized := strings.Repeat("x", 4096)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(oversized))
		}))
		defer srv.Close()

		cfg := fetcherConfig(srv.URL)
		cfg.Reddit.MaxBodyBytes = 1024

		var logs bytes.Buffer
		log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

		f := NewListingFetcher(cfg, log)

		page, err := f.Fetch(context.Background(), "golang", "")

		require.NoError(t, err)
		assert.Len(t, page.HTML, 1024)
		assert.Contains(t, logs.String(), "exceeded the body size limit")
	})

	t.Run("should not log a limit warning for a page within the limit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(lastPage))
		}))
		defer srv.Close()

		var logs bytes.Buffer
		log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

		f := NewListingFetcher(fetcherConfig(srv.URL), log)

		_, err := f.Fetch(context.Background(), "golang", "")

		require.NoError(t, err)
		assert.NotContains(t, logs.String(), "exceeded the body size limit")
	})

	t.Run("should tag server errors as network failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := NewListingFetcher(fetcherConfig(srv.URL), testLogger())

		_, err := f.Fetch(context.Background(), "golang", "")

		require.Error(t, err)
		assert.Equal(t, domain.FetchCauseNetwork, domain.FetchCauseOf(err))
	})
}

func TestExtractNextCursor(t *testing.T) {
	t.Run("should fall back to a rel=next anchor", func(t *testing.T) {
		html := `<html><body><a rel="next" href="/r/golang/?after=t3_next42">more</a></body></html>`
		assert.Equal(t, "t3_next42", extractNextCursor(html))
	})

	t.Run("should decode a percent-encoded cursor", func(t *testing.T) {
		html := `<faceplate-partial src="/svc/more?after=t3_abc%3D%3D"></faceplate-partial>`
		assert.Equal(t, "t3_abc==", extractNextCursor(html))
	})

	t.Run("should return empty for markup without a cursor", func(t *testing.T) {
		assert.Empty(t, extractNextCursor("<html><body><p>nothing</p></body></html>"))
	})
}
