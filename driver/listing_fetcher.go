package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"reddit-listener/config"
	"reddit-listener/domain"
	"reddit-listener/retry"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// ListingFetcher retrieves subreddit listing pages. Requests carry a
// realistic User-Agent, go through a token-bucket rate limiter, and retry
// transient failures with backoff.
type ListingFetcher struct {
	client  *http.Client
	cfg     *config.RedditConfig
	limiter *rate.Limiter
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewListingFetcher creates a listing fetcher from process config.
func NewListingFetcher(cfg *config.Config, logger *slog.Logger) *ListingFetcher {
	retrier := retry.NewRetrier(retry.Config{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		JitterFactor:  cfg.Retry.JitterFactor,
	}, isRetryableFetch, logger)

	return &ListingFetcher{
		client:  &http.Client{Timeout: cfg.Reddit.Timeout},
		cfg:     &cfg.Reddit,
		limiter: rate.NewLimiter(rate.Every(cfg.Reddit.MinInterval), 1),
		retrier: retrier,
		logger:  logger,
	}
}

func isRetryableFetch(err error) bool {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}

	return false
}

// Fetch retrieves one listing page. cursor is the pagination token from
// the previous page, empty for the first page. The returned page carries
// the next cursor and a distinct no-more-pages signal.
func (f *ListingFetcher) Fetch(ctx context.Context, subreddit, cursor string) (*domain.ListingPage, error) {
	pageURL := f.listingURL(subreddit, cursor)

	var page *domain.ListingPage

	err := f.retrier.Do(ctx, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return &domain.FetchError{Cause: domain.FetchCauseUnknown, URL: pageURL, Err: err}
		}

		fetched, err := f.fetchOnce(ctx, pageURL)
		if err != nil {
			return err
		}

		page = fetched

		return nil
	})
	if err != nil {
		return nil, err
	}

	page.Subreddit = subreddit
	f.logger.InfoContext(ctx, "listing page fetched",
		"subreddit", subreddit,
		"url", pageURL,
		"has_more", page.HasMore,
		"bytes", len(page.HTML))

	return page, nil
}

func (f *ListingFetcher) listingURL(subreddit, cursor string) string {
	pageURL := fmt.Sprintf("%s/r/%s/", strings.TrimSuffix(f.cfg.BaseURL, "/"), subreddit)
	if cursor != "" {
		pageURL += "?after=" + url.QueryEscape(cursor)
	}

	return pageURL
}

func (f *ListingFetcher) fetchOnce(ctx context.Context, pageURL string) (*domain.ListingPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Cause: domain.FetchCauseUnknown, URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	fetchedAt := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Cause: domain.FetchCauseNetwork, URL: pageURL, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Error("failed to close response body", "error", err)
		}
	}()

	if cause, ok := classifyStatus(resp.StatusCode); ok {
		return nil, &domain.FetchError{
			Cause: cause,
			URL:   pageURL,
			Err:   fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	// Read one byte past the limit so a truncated page is detectable.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &domain.FetchError{Cause: domain.FetchCauseNetwork, URL: pageURL, Err: err}
	}

	if int64(len(body)) > f.cfg.MaxBodyBytes {
		body = body[:f.cfg.MaxBodyBytes]
		f.logger.Warn("listing page exceeded the body size limit; trailing markup dropped",
			"url", pageURL,
			"limit_bytes", f.cfg.MaxBodyBytes)
	}

	html := string(body)
	cursor := extractNextCursor(html)

	return &domain.ListingPage{
		HTML:       html,
		FetchedAt:  fetchedAt,
		NextCursor: cursor,
		HasMore:    cursor != "",
	}, nil
}

func classifyStatus(status int) (domain.FetchCause, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusNotFound:
		return domain.FetchCauseNotFound, true
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return domain.FetchCauseRateLimited, true
	case status >= 500:
		return domain.FetchCauseNetwork, true
	default:
		return domain.FetchCauseUnknown, true
	}
}

var afterParamPattern = regexp.MustCompile(`[?&]after=([A-Za-z0-9_%=.-]+)`)

// extractNextCursor digs the pagination token out of the listing markup.
// Shreddit loads subsequent pages through a faceplate-partial whose src
// carries the after= token; old-style listings use a rel=next anchor. No
// token means the listing is exhausted.
func extractNextCursor(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var cursor string

	doc.Find("faceplate-partial[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if m := afterParamPattern.FindStringSubmatch(src); m != nil {
			cursor = m[1]
			return false
		}

		return true
	})

	if cursor != "" {
		return decodeCursor(cursor)
	}

	if href, ok := doc.Find("a[rel~='next']").First().Attr("href"); ok {
		if m := afterParamPattern.FindStringSubmatch(href); m != nil {
			return decodeCursor(m[1])
		}
	}

	return ""
}

func decodeCursor(raw string) string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		return decoded
	}

	return raw
}
