package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"reddit-listener/domain"
	"reddit-listener/repository"
	"reddit-listener/service"

	"github.com/labstack/echo/v4"
)

// SummarizeThreadRequest is the request body for on-demand summarization.
type SummarizeThreadRequest struct {
	Permalink string `json:"permalink"`
}

// SummarizeThreadResponse reports one summarization.
type SummarizeThreadResponse struct {
	Permalink string `json:"permalink"`
	Summary   string `json:"summary"`
}

// ThreadHandler exposes stored threads and summarization over HTTP.
type ThreadHandler struct {
	threads    repository.ThreadRepository
	summarizer service.SummarizeService
	logger     *slog.Logger
}

func NewThreadHandler(threads repository.ThreadRepository, summarizer service.SummarizeService, logger *slog.Logger) *ThreadHandler {
	return &ThreadHandler{
		threads:    threads,
		summarizer: summarizer,
		logger:     logger,
	}
}

// HandleList handles GET /api/v1/threads requests.
func (h *ThreadHandler) HandleList(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.threads.FindAll(ctx)
	if err != nil {
		h.logger.Error("failed to list threads", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list threads")
	}

	if records == nil {
		records = []*domain.ThreadRecord{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"threads": records,
		"count":   len(records),
	})
}

// HandleDetail handles GET /api/v1/threads/detail?permalink= requests.
func (h *ThreadHandler) HandleDetail(c echo.Context) error {
	ctx := c.Request().Context()

	permalink := c.QueryParam("permalink")
	if permalink == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "permalink query parameter is required")
	}

	record, err := h.threads.FindByPermalink(ctx, permalink)
	if err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}

		h.logger.Error("failed to load thread", "permalink", permalink, "error", err)

		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load thread")
	}

	return c.JSON(http.StatusOK, record)
}

// HandleSummarize handles POST /api/v1/threads/summarize requests.
func (h *ThreadHandler) HandleSummarize(c echo.Context) error {
	ctx := c.Request().Context()

	var req SummarizeThreadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	if req.Permalink == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "permalink cannot be empty")
	}

	summary, err := h.summarizer.SummarizeThread(ctx, req.Permalink)
	if err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}

		h.logger.Error("summarization failed", "permalink", req.Permalink, "error", err)

		return echo.NewHTTPError(http.StatusBadGateway, "summarization failed")
	}

	return c.JSON(http.StatusOK, SummarizeThreadResponse{
		Permalink: req.Permalink,
		Summary:   summary,
	})
}

// HandleSummarizePending handles POST /api/v1/threads/summarize_pending
// requests.
func (h *ThreadHandler) HandleSummarizePending(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.summarizer.SummarizePending(ctx)
	if err != nil {
		h.logger.Error("batch summarization failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "batch summarization failed")
	}

	return c.JSON(http.StatusOK, result)
}
