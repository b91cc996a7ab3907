package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"reddit-listener/config"
	"reddit-listener/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSummarizerClient struct {
	mu      sync.Mutex
	calls   int
	failOn  map[string]error
	summary func(title string) string
}

func (c *stubSummarizerClient) Summarize(_ context.Context, title, _ string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if err, ok := c.failOn[title]; ok {
		return "", err
	}

	if c.summary != nil {
		return c.summary(title), nil
	}

	return "summary of " + title, nil
}

type summarizerRepo struct {
	stubThreadRepo
	mu        sync.Mutex
	summaries map[string]string
	updateErr error
}

func newSummarizerRepo(records ...*domain.ThreadRecord) *summarizerRepo {
	r := &summarizerRepo{
		stubThreadRepo: stubThreadRepo{records: map[string]*domain.ThreadRecord{}},
		summaries:      map[string]string{},
	}
	for _, record := range records {
		r.records[record.Permalink] = record
	}

	return r
}

func (r *summarizerRepo) FindByPermalink(_ context.Context, permalink string) (*domain.ThreadRecord, error) {
	record, ok := r.records[permalink]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}

	return record, nil
}

func (r *summarizerRepo) FindWithoutSummary(_ context.Context) ([]*domain.ThreadRecord, error) {
	var pending []*domain.ThreadRecord
	for _, record := range r.records {
		if record.Summary == "" {
			pending = append(pending, record)
		}
	}

	return pending, nil
}

func (r *summarizerRepo) UpdateSummary(_ context.Context, permalink, summary string) (bool, error) {
	if r.updateErr != nil {
		return false, r.updateErr
	}

	r.mu.Lock()
	r.summaries[permalink] = summary
	r.mu.Unlock()

	return true, nil
}

func threadNamed(title string) *domain.ThreadRecord {
	return &domain.ThreadRecord{
		ID:        title + "-id",
		Permalink: "https://www.reddit.com/r/golang/comments/" + title + "/",
		Subreddit: "golang",
		Title:     title,
		Body:      "body of " + title,
	}
}

func geminiTestConfig() config.GeminiConfig {
	return config.GeminiConfig{
		Model:         "gemini-2.0-flash",
		Timeout:       5 * time.Second,
		MaxConcurrent: 3,
	}
}

func TestThreadSummarizer_SummarizeThread(t *testing.T) {
	t.Run("should summarize and persist a stored thread", func(t *testing.T) {
		record := threadNamed("alpha")
		repo := newSummarizerRepo(record)
		client := &stubSummarizerClient{}
		summarizer := NewThreadSummarizer(client, repo, geminiTestConfig(), testLogger())

		summary, err := summarizer.SummarizeThread(context.Background(), record.Permalink)

		require.NoError(t, err)
		assert.Equal(t, "summary of alpha", summary)
		assert.Equal(t, "summary of alpha", repo.summaries[record.Permalink])
	})

	t.Run("should return not found for an unknown permalink", func(t *testing.T) {
		repo := newSummarizerRepo()
		summarizer := NewThreadSummarizer(&stubSummarizerClient{}, repo, geminiTestConfig(), testLogger())

		_, err := summarizer.SummarizeThread(context.Background(), "https://www.reddit.com/r/golang/comments/nope/")

		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("should not persist anything when the model call fails", func(t *testing.T) {
		record := threadNamed("beta")
		repo := newSummarizerRepo(record)
		client := &stubSummarizerClient{failOn: map[string]error{"beta": domain.ErrEmptySummary}}
		summarizer := NewThreadSummarizer(client, repo, geminiTestConfig(), testLogger())

		_, err := summarizer.SummarizeThread(context.Background(), record.Permalink)

		assert.ErrorIs(t, err, domain.ErrEmptySummary)
		assert.Empty(t, repo.summaries)
	})
}

func TestThreadSummarizer_SummarizePending(t *testing.T) {
	t.Run("should summarize every unsummarized thread", func(t *testing.T) {
		records := make([]*domain.ThreadRecord, 0, 5)
		for i := 0; i < 5; i++ {
			records = append(records, threadNamed(fmt.Sprintf("t%d", i)))
		}
		repo := newSummarizerRepo(records...)
		client := &stubSummarizerClient{}
		summarizer := NewThreadSummarizer(client, repo, geminiTestConfig(), testLogger())

		result, err := summarizer.SummarizePending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 5, result.Processed)
		assert.Equal(t, 5, result.Succeeded)
		assert.Equal(t, 0, result.Failed)
		assert.Len(t, repo.summaries, 5)
	})

	t.Run("should skip threads that already have a summary", func(t *testing.T) {
		done := threadNamed("done")
		done.Summary = "already summarized"
		pending := threadNamed("pending")
		repo := newSummarizerRepo(done, pending)
		client := &stubSummarizerClient{}
		summarizer := NewThreadSummarizer(client, repo, geminiTestConfig(), testLogger())

		result, err := summarizer.SummarizePending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("should count per-thread failures without failing the batch", func(t *testing.T) {
		repo := newSummarizerRepo(threadNamed("ok1"), threadNamed("bad"), threadNamed("ok2"))
		client := &stubSummarizerClient{failOn: map[string]error{"bad": errors.New("model unavailable")}}
		summarizer := NewThreadSummarizer(client, repo, geminiTestConfig(), testLogger())

		result, err := summarizer.SummarizePending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 2, result.Succeeded)
		assert.Equal(t, 1, result.Failed)
		assert.NotContains(t, repo.summaries, threadNamed("bad").Permalink)
	})

	t.Run("should report an empty batch without calling the model", func(t *testing.T) {
		repo := newSummarizerRepo()
		client := &stubSummarizerClient{}
		summarizer := NewThreadSummarizer(client, repo, geminiTestConfig(), testLogger())

		result, err := summarizer.SummarizePending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, result.Processed)
		assert.Equal(t, 0, client.calls)
	})

	t.Run("should count persistence failures as failed", func(t *testing.T) {
		repo := newSummarizerRepo(threadNamed("gamma"))
		repo.updateErr = errors.New("connection reset")
		summarizer := NewThreadSummarizer(&stubSummarizerClient{}, repo, geminiTestConfig(), testLogger())

		result, err := summarizer.SummarizePending(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Succeeded)
	})
}
