package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Bounds for CrawlRequest.MaxThreads. Values outside the range are a
// validation failure, not silently clamped.
const (
	MinCrawlThreads = 1
	MaxCrawlThreads = 100
)

var (
	subredditURLPattern  = regexp.MustCompile(`(?:^|/)r/([A-Za-z0-9_]+)`)
	subredditNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// CrawlRequest describes one crawl of a subreddit listing. Subreddit
// accepts a bare name, "r/name", "/r/name", or a full URL; Normalize
// reduces it to the canonical bare name before any network activity.
type CrawlRequest struct {
	Subreddit  string
	Start      *time.Time
	End        *time.Time
	MaxThreads int
}

// Normalize canonicalizes the subreddit identifier in place.
func (r *CrawlRequest) Normalize() error {
	if r.Subreddit == "" {
		return ErrInvalidSubreddit
	}

	if subredditNamePattern.MatchString(r.Subreddit) {
		return nil
	}

	m := subredditURLPattern.FindStringSubmatch(r.Subreddit)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrInvalidSubreddit, r.Subreddit)
	}

	r.Subreddit = m[1]

	return nil
}

// Validate checks the request after normalization. Validation failures
// terminate a crawl before any side effects.
func (r CrawlRequest) Validate() error {
	if !subredditNamePattern.MatchString(r.Subreddit) {
		return fmt.Errorf("%w: %q", ErrInvalidSubreddit, r.Subreddit)
	}

	if r.MaxThreads < MinCrawlThreads || r.MaxThreads > MaxCrawlThreads {
		return fmt.Errorf("%w: got %d", ErrMaxThreadsOutOfBounds, r.MaxThreads)
	}

	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return ErrInvalidDateRange
	}

	return nil
}

// CrawlStatus is the terminal state of a crawl.
type CrawlStatus string

const (
	// CrawlCompleted: the crawl short-circuited after confirming the rest
	// of the listing is older than the requested range.
	CrawlCompleted CrawlStatus = "completed"
	// CrawlCapped: the max-thread cap was reached.
	CrawlCapped CrawlStatus = "capped"
	// CrawlExhausted: the upstream listing ran out of pages. Success even
	// when below the requested cap.
	CrawlExhausted CrawlStatus = "exhausted-listing"
	// CrawlFailed: fetch or storage failure. Counts accumulated before the
	// failure are preserved, never rolled back.
	CrawlFailed CrawlStatus = "failed"
)

// CrawlResult reports what a crawl accomplished, including partial
// progress when it failed mid-way.
type CrawlResult struct {
	Subreddit    string      `json:"subreddit"`
	Stored       int         `json:"stored"`
	Duplicates   int         `json:"duplicates"`
	OutOfRange   int         `json:"out_of_range"`
	Unresolved   int         `json:"unresolved"`
	PagesFetched int         `json:"pages_fetched"`
	Status       CrawlStatus `json:"status"`
	FailureCause string      `json:"failure_cause,omitempty"`
}
