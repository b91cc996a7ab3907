// ABOUTME: Domain-level sentinel errors for the reddit-listener service
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	// ErrInvalidSubreddit indicates the subreddit identifier could not be
	// reduced to a canonical name
	ErrInvalidSubreddit = errors.New("invalid subreddit identifier")

	// ErrMaxThreadsOutOfBounds indicates max threads is outside [1, 100]
	ErrMaxThreadsOutOfBounds = errors.New("max threads must be between 1 and 100")

	// ErrInvalidDateRange indicates the start date is after the end date
	ErrInvalidDateRange = errors.New("start date is after end date")
)

// Crawl pipeline errors
var (
	// ErrUnresolvedTimestamp indicates timestamp text in no recognized format
	ErrUnresolvedTimestamp = errors.New("unrecognized timestamp format")

	// ErrMissingPermalink indicates a listing entry with no permalink; the
	// entry is skipped, never fatal to page processing
	ErrMissingPermalink = errors.New("entry has no permalink")
)

// Storage and summarization errors
var (
	// ErrThreadNotFound indicates the requested thread does not exist
	ErrThreadNotFound = errors.New("thread not found")

	// ErrEmptySummary indicates the model returned empty output; the
	// thread's summary is left unset rather than storing garbage
	ErrEmptySummary = errors.New("summarizer returned empty output")
)

// FetchCause tags a listing fetch failure.
type FetchCause string

const (
	FetchCauseNotFound    FetchCause = "not-found"
	FetchCauseRateLimited FetchCause = "rate-limited"
	FetchCauseNetwork     FetchCause = "network"
	FetchCauseUnknown     FetchCause = "unknown"
)

// FetchError is a listing fetch failure with a cause tag. Network and
// rate-limited causes are retried with backoff; the rest surface
// immediately.
type FetchError struct {
	Cause FetchCause
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed (%s): %v", e.URL, e.Cause, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the fetch can help.
func (e *FetchError) Retryable() bool {
	return e.Cause == FetchCauseNetwork || e.Cause == FetchCauseRateLimited
}

// FetchCauseOf extracts the cause tag from an error chain, defaulting to
// unknown.
func FetchCauseOf(err error) FetchCause {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Cause
	}

	return FetchCauseUnknown
}
