package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reddit-listener/config"
	"reddit-listener/domain"
	"reddit-listener/repository"

	"golang.org/x/sync/errgroup"
)

// ThreadSummarizer generates summaries for stored threads and persists
// them. Summarization is decoupled from crawling: a crawl never blocks on
// the model, and a failed summary leaves the thread unsummarized so a
// later run can retry it.
type ThreadSummarizer struct {
	client  SummarizerClient
	threads repository.ThreadRepository
	cfg     config.GeminiConfig
	logger  *slog.Logger
}

func NewThreadSummarizer(
	client SummarizerClient,
	threads repository.ThreadRepository,
	cfg config.GeminiConfig,
	logger *slog.Logger,
) *ThreadSummarizer {
	return &ThreadSummarizer{
		client:  client,
		threads: threads,
		cfg:     cfg,
		logger:  logger,
	}
}

// SummarizeThread summarizes one stored thread and persists the result.
// Re-summarizing an already summarized thread overwrites the old summary.
func (s *ThreadSummarizer) SummarizeThread(ctx context.Context, permalink string) (string, error) {
	record, err := s.threads.FindByPermalink(ctx, permalink)
	if err != nil {
		return "", err
	}

	summary, err := s.summarize(ctx, record)
	if err != nil {
		return "", err
	}

	if _, err := s.threads.UpdateSummary(ctx, record.Permalink, summary); err != nil {
		return "", fmt.Errorf("failed to persist summary: %w", err)
	}

	return summary, nil
}

// SummarizePending summarizes every stored thread that has no summary
// yet. Threads run concurrently up to the configured limit; per-thread
// failures are counted and logged, never fatal to the batch.
func (s *ThreadSummarizer) SummarizePending(ctx context.Context) (*SummarizeResult, error) {
	pending, err := s.threads.FindWithoutSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsummarized threads: %w", err)
	}

	result := &SummarizeResult{Processed: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for _, record := range pending {
		g.Go(func() error {
			summary, err := s.summarize(gctx, record)
			if err != nil {
				s.logger.WarnContext(gctx, "thread summarization failed",
					"permalink", record.Permalink,
					"error", err)
				mu.Lock()
				result.Failed++
				mu.Unlock()

				return nil
			}

			if _, err := s.threads.UpdateSummary(gctx, record.Permalink, summary); err != nil {
				s.logger.WarnContext(gctx, "failed to persist summary",
					"permalink", record.Permalink,
					"error", err)
				mu.Lock()
				result.Failed++
				mu.Unlock()

				return nil
			}

			mu.Lock()
			result.Succeeded++
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "summarization batch finished",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}

func (s *ThreadSummarizer) summarize(ctx context.Context, record *domain.ThreadRecord) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	summary, err := s.client.Summarize(callCtx, record.Title, record.Body)
	if err != nil {
		return "", fmt.Errorf("summarizer call failed for %s: %w", record.Permalink, err)
	}

	return summary, nil
}

func (s *ThreadSummarizer) timeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}

	return 60 * time.Second
}
