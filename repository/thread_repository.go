package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reddit-listener/domain"

	"github.com/jackc/pgx/v5"
)

// ThreadRepository implementation.
type threadRepository struct {
	db     DB
	logger *slog.Logger
}

// NewThreadRepository creates a new thread repository.
func NewThreadRepository(db DB, logger *slog.Logger) ThreadRepository {
	return &threadRepository{
		db:     db,
		logger: logger,
	}
}

const threadColumns = `id, permalink, subreddit, title, author, flair, body,
	posted_at, posted_precision, raw_posted_text, summary, fetched_at, summarized_at`

// Exists checks permalink membership.
func (r *threadRepository) Exists(ctx context.Context, permalink string) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("failed to check thread existence: database connection is nil")
	}

	query := `SELECT EXISTS (SELECT 1 FROM threads WHERE permalink = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, permalink).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "failed to check thread existence", "error", err, "permalink", permalink)
		return false, fmt.Errorf("failed to check thread existence: %w", err)
	}

	return exists, nil
}

// InsertIfAbsent inserts the record unless its permalink is already
// stored. Returns whether a row was written; a conflicting concurrent
// insert makes this a no-op rather than a duplicate.
func (r *threadRepository) InsertIfAbsent(ctx context.Context, record *domain.ThreadRecord) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("failed to insert thread: database connection is nil")
	}

	query := `
		INSERT INTO threads
			(id, permalink, subreddit, title, author, flair, body,
			 posted_at, posted_precision, raw_posted_text, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (permalink) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query,
		record.ID,
		record.Permalink,
		record.Subreddit,
		record.Title,
		record.Author,
		record.Flair,
		record.Body,
		record.PostedAt,
		int(record.PostedPrecision),
		record.RawPostedText,
		record.FetchedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to insert thread", "error", err, "permalink", record.Permalink)
		return false, fmt.Errorf("failed to insert thread: %w", err)
	}

	inserted := tag.RowsAffected() == 1
	r.logger.InfoContext(ctx, "thread insert attempted", "permalink", record.Permalink, "inserted", inserted)

	return inserted, nil
}

// UpdateSummary sets the summary for a stored thread. Returns false when
// the permalink is unknown.
func (r *threadRepository) UpdateSummary(ctx context.Context, permalink, summary string) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("failed to update summary: database connection is nil")
	}

	query := `UPDATE threads SET summary = $2, summarized_at = NOW() WHERE permalink = $1`

	tag, err := r.db.Exec(ctx, query, permalink, summary)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to update summary", "error", err, "permalink", permalink)
		return false, fmt.Errorf("failed to update summary: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// FindByPermalink fetches one record.
func (r *threadRepository) FindByPermalink(ctx context.Context, permalink string) (*domain.ThreadRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to find thread: database connection is nil")
	}

	query := fmt.Sprintf(`SELECT %s FROM threads WHERE permalink = $1`, threadColumns)

	record, err := scanThread(r.db.QueryRow(ctx, query, permalink))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrThreadNotFound
		}

		r.logger.ErrorContext(ctx, "failed to find thread", "error", err, "permalink", permalink)

		return nil, fmt.Errorf("failed to find thread: %w", err)
	}

	return record, nil
}

// FindAll returns every stored thread, newest fetch first.
func (r *threadRepository) FindAll(ctx context.Context) ([]*domain.ThreadRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM threads ORDER BY fetched_at DESC`, threadColumns)
	return r.queryThreads(ctx, query)
}

// FindWithoutSummary returns threads whose summary has not been generated.
func (r *threadRepository) FindWithoutSummary(ctx context.Context) ([]*domain.ThreadRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM threads
		WHERE summary IS NULL OR summary = ''
		ORDER BY fetched_at DESC`, threadColumns)

	return r.queryThreads(ctx, query)
}

func (r *threadRepository) queryThreads(ctx context.Context, query string) ([]*domain.ThreadRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("failed to query threads: database connection is nil")
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to query threads", "error", err)
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var records []*domain.ThreadRecord

	for rows.Next() {
		record, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read threads: %w", err)
	}

	return records, nil
}

func scanThread(row pgx.Row) (*domain.ThreadRecord, error) {
	var record domain.ThreadRecord

	var precision int

	var summary *string

	if err := row.Scan(
		&record.ID,
		&record.Permalink,
		&record.Subreddit,
		&record.Title,
		&record.Author,
		&record.Flair,
		&record.Body,
		&record.PostedAt,
		&precision,
		&record.RawPostedText,
		&summary,
		&record.FetchedAt,
		&record.SummarizedAt,
	); err != nil {
		return nil, err
	}

	record.PostedPrecision = domain.TimePrecision(precision)

	if summary != nil {
		record.Summary = *summary
	}

	return &record, nil
}
