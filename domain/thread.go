package domain

import "time"

// ThreadRecord is a stored subreddit thread. Permalink is the dedup key
// and stays stable across crawls.
type ThreadRecord struct {
	ID              string        `json:"id"`
	Permalink       string        `json:"permalink"`
	Subreddit       string        `json:"subreddit"`
	Title           string        `json:"title"`
	Author          string        `json:"author"`
	Flair           string        `json:"flair"`
	Body            string        `json:"body"`
	PostedAt        time.Time     `json:"posted_at"`
	PostedPrecision TimePrecision `json:"posted_precision"`
	RawPostedText   string        `json:"raw_posted_text"`
	Summary         string        `json:"summary,omitempty"`
	FetchedAt       time.Time     `json:"fetched_at"`
	SummarizedAt    *time.Time    `json:"summarized_at,omitempty"`
}

// CandidateThread is an extracted-but-not-yet-filtered thread. Timestamp
// text is kept raw here; resolution happens in the crawl controller so the
// extractor and resolver stay independently testable.
type CandidateThread struct {
	Permalink    string
	Title        string
	Author       string
	Flair        string
	RawTimestamp string
	Snippet      string
}

// ListingPage is one fetched page of a subreddit listing.
type ListingPage struct {
	Subreddit  string
	HTML       string
	FetchedAt  time.Time
	NextCursor string
	HasMore    bool
}
