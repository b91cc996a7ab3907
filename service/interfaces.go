package service

import (
	"context"

	"reddit-listener/domain"
)

// ListingFetcher retrieves one page of a subreddit listing. Implemented
// by driver.ListingFetcher; stubbed in tests.
type ListingFetcher interface {
	Fetch(ctx context.Context, subreddit, cursor string) (*domain.ListingPage, error)
}

// SummarizerClient turns thread text into a short summary. Implemented by
// driver.GeminiSummarizer; stubbed in tests.
type SummarizerClient interface {
	Summarize(ctx context.Context, title, body string) (string, error)
}

// CrawlService runs the crawl pipeline for one request. Crawl returns a
// non-nil result even on failure so partial progress is never lost.
type CrawlService interface {
	Crawl(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlResult, error)
}

// SummarizeService generates and stores summaries for stored threads.
type SummarizeService interface {
	SummarizeThread(ctx context.Context, permalink string) (string, error)
	SummarizePending(ctx context.Context) (*SummarizeResult, error)
}

// SummarizeResult reports a batch summarization run. Per-thread failures
// are counted, never fatal.
type SummarizeResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
