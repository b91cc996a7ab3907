package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"reddit-listener/domain"
	"reddit-listener/service"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

// CrawlRequest is the request body for a crawl. Dates are YYYY-MM-DD;
// the end date covers the whole day. Max threads defaults to 10 when
// omitted.
type CrawlRequest struct {
	SubredditURL string `json:"subreddit_url"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	MaxThreads   int    `json:"max_threads"`
}

const defaultMaxThreads = 10

// CrawlHandler exposes the crawl pipeline over HTTP.
type CrawlHandler struct {
	crawler service.CrawlService
	logger  *slog.Logger
}

func NewCrawlHandler(crawler service.CrawlService, logger *slog.Logger) *CrawlHandler {
	return &CrawlHandler{
		crawler: crawler,
		logger:  logger,
	}
}

// HandleCrawl handles POST /api/v1/crawl requests.
func (h *CrawlHandler) HandleCrawl(c echo.Context) error {
	ctx := c.Request().Context()

	var req CrawlRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("failed to bind crawl request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	crawlReq, err := h.toDomainRequest(req)
	if err != nil {
		h.logger.Warn("rejected crawl request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.crawler.Crawl(ctx, crawlReq)
	if err != nil {
		if isValidationError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		h.logger.Error("crawl failed", "subreddit", result.Subreddit, "error", err)

		// Partial progress still matters to the caller, so the failed
		// result rides along with the error status.
		return c.JSON(http.StatusBadGateway, result)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CrawlHandler) toDomainRequest(req CrawlRequest) (domain.CrawlRequest, error) {
	out := domain.CrawlRequest{
		Subreddit:  req.SubredditURL,
		MaxThreads: req.MaxThreads,
	}

	if out.MaxThreads == 0 {
		out.MaxThreads = defaultMaxThreads
	}

	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return domain.CrawlRequest{}, errors.New("start_date must be YYYY-MM-DD")
		}

		out.Start = &start
	}

	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return domain.CrawlRequest{}, errors.New("end_date must be YYYY-MM-DD")
		}

		// The end date is inclusive of the whole day.
		end = end.Add(24*time.Hour - time.Nanosecond)
		out.End = &end
	}

	return out, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidSubreddit) ||
		errors.Is(err, domain.ErrMaxThreadsOutOfBounds) ||
		errors.Is(err, domain.ErrInvalidDateRange)
}
