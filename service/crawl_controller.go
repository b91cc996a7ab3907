package service

import (
	"context"
	"fmt"
	"log/slog"

	"reddit-listener/domain"
	"reddit-listener/repository"

	"github.com/google/uuid"
)

// CrawlController drives the crawl pipeline: fetch a listing page,
// extract candidates, filter by date range, deduplicate against the
// store, write novel records, and loop until the listing is exhausted,
// the cap is reached, a confirmed too-old candidate short-circuits the
// crawl, or a failure ends it. Pages are processed strictly in order
// because the short-circuit decision depends on listing order.
type CrawlController struct {
	fetcher   ListingFetcher
	extractor *ThreadExtractor
	resolver  *TimeResolver
	threads   repository.ThreadRepository
	maxPages  int
	logger    *slog.Logger
}

func NewCrawlController(
	fetcher ListingFetcher,
	extractor *ThreadExtractor,
	resolver *TimeResolver,
	threads repository.ThreadRepository,
	maxPages int,
	logger *slog.Logger,
) *CrawlController {
	return &CrawlController{
		fetcher:   fetcher,
		extractor: extractor,
		resolver:  resolver,
		threads:   threads,
		maxPages:  maxPages,
		logger:    logger,
	}
}

// Crawl runs one crawl request to a terminal state. The result always
// reports the counts accumulated so far; progress already stored is never
// rolled back on failure.
func (c *CrawlController) Crawl(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlResult, error) {
	if err := req.Normalize(); err != nil {
		return &domain.CrawlResult{Status: domain.CrawlFailed, FailureCause: "validation"}, err
	}

	result := &domain.CrawlResult{Subreddit: req.Subreddit}

	if err := req.Validate(); err != nil {
		result.Status = domain.CrawlFailed
		result.FailureCause = "validation"

		return result, err
	}

	crawlID := uuid.NewString()
	c.logger.InfoContext(ctx, "crawl started",
		"crawl_id", crawlID,
		"subreddit", req.Subreddit,
		"max_threads", req.MaxThreads)

	cursor := ""

	for result.PagesFetched < c.maxPages {
		page, err := c.fetcher.Fetch(ctx, req.Subreddit, cursor)
		if err != nil {
			result.Status = domain.CrawlFailed
			result.FailureCause = string(domain.FetchCauseOf(err))
			c.logger.ErrorContext(ctx, "crawl failed on fetch",
				"crawl_id", crawlID,
				"cause", result.FailureCause,
				"stored_so_far", result.Stored,
				"error", err)

			return result, err
		}

		result.PagesFetched++

		candidates := c.extractor.Extract(page)

		done, err := c.processPage(ctx, req, page, candidates, result)
		if err != nil {
			result.Status = domain.CrawlFailed
			result.FailureCause = "storage"
			c.logger.ErrorContext(ctx, "crawl failed on store",
				"crawl_id", crawlID,
				"stored_so_far", result.Stored,
				"error", err)

			return result, err
		}

		if done {
			break
		}

		if !page.HasMore {
			result.Status = domain.CrawlExhausted
			break
		}

		cursor = page.NextCursor
	}

	if result.Status == "" {
		// Pagination safety limit reached: treat like an exhausted listing.
		result.Status = domain.CrawlExhausted
	}

	c.logger.InfoContext(ctx, "crawl finished",
		"crawl_id", crawlID,
		"status", result.Status,
		"stored", result.Stored,
		"duplicates", result.Duplicates,
		"out_of_range", result.OutOfRange,
		"unresolved", result.Unresolved,
		"pages", result.PagesFetched)

	return result, nil
}

// processPage runs candidates through filter, dedup, and store. It
// reports done=true when the crawl reached a terminal state (cap hit or
// confirmed out-of-range-too-old short-circuit), and a non-nil error only
// for storage failures.
func (c *CrawlController) processPage(
	ctx context.Context,
	req domain.CrawlRequest,
	page *domain.ListingPage,
	candidates []domain.CandidateThread,
	result *domain.CrawlResult,
) (bool, error) {
	for _, candidate := range candidates {
		resolved, err := c.resolver.Resolve(candidate.RawTimestamp, page.FetchedAt)
		if err != nil {
			// Cannot verify range membership: exclude rather than ingest
			// unfiltered content, and keep the raw text for diagnosis.
			result.Unresolved++
			c.logger.WarnContext(ctx, "excluding candidate with unresolvable timestamp",
				"permalink", candidate.Permalink,
				"raw_timestamp", candidate.RawTimestamp)

			continue
		}

		if !resolved.InRange(req.Start, req.End) {
			result.OutOfRange++

			if c.confirmedTooOld(req, resolved) {
				// Listing order is newest-first: everything after this
				// point is older still, so no further pages are needed.
				result.Status = domain.CrawlCompleted

				return true, nil
			}

			continue
		}

		exists, err := c.threads.Exists(ctx, candidate.Permalink)
		if err != nil {
			return false, fmt.Errorf("dedup check failed: %w", err)
		}

		if exists {
			result.Duplicates++
			continue
		}

		record := buildRecord(req.Subreddit, candidate, resolved, page)

		inserted, err := c.threads.InsertIfAbsent(ctx, record)
		if err != nil {
			return false, fmt.Errorf("store failed: %w", err)
		}

		if !inserted {
			// Lost the insert race to a concurrent crawl.
			result.Duplicates++
			continue
		}

		result.Stored++

		if result.Stored >= req.MaxThreads {
			// Cap counts only stored threads. Remaining candidates on
			// this page are not processed and no further page is fetched.
			result.Status = domain.CrawlCapped

			return true, nil
		}
	}

	return false, nil
}

// confirmedTooOld gates the short-circuit: it needs a lower bound, a
// resolved time whose whole tolerance window sits before that bound, and
// day-or-finer precision. Coarse month/year values must keep the crawl
// going so it does not end prematurely on false precision.
func (c *CrawlController) confirmedTooOld(req domain.CrawlRequest, resolved domain.ResolvedTime) bool {
	if req.Start == nil {
		return false
	}

	if resolved.Precision > domain.PrecisionDay {
		return false
	}

	return resolved.DefinitelyBefore(*req.Start)
}

func buildRecord(subreddit string, candidate domain.CandidateThread, resolved domain.ResolvedTime, page *domain.ListingPage) *domain.ThreadRecord {
	return &domain.ThreadRecord{
		ID:              uuid.NewString(),
		Permalink:       candidate.Permalink,
		Subreddit:       subreddit,
		Title:           candidate.Title,
		Author:          candidate.Author,
		Flair:           candidate.Flair,
		Body:            candidate.Snippet,
		PostedAt:        resolved.Time,
		PostedPrecision: resolved.Precision,
		RawPostedText:   candidate.RawTimestamp,
		FetchedAt:       page.FetchedAt,
	}
}
