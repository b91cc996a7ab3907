package repository

import (
	"context"

	"reddit-listener/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ThreadRepository is the durable store for thread records. Permalink is
// the unique key; InsertIfAbsent must be conflict-detecting so two
// concurrent crawls cannot both insert the same permalink.
type ThreadRepository interface {
	Exists(ctx context.Context, permalink string) (bool, error)
	InsertIfAbsent(ctx context.Context, record *domain.ThreadRecord) (bool, error)
	UpdateSummary(ctx context.Context, permalink, summary string) (bool, error)
	FindByPermalink(ctx context.Context, permalink string) (*domain.ThreadRecord, error)
	FindAll(ctx context.Context) ([]*domain.ThreadRecord, error)
	FindWithoutSummary(ctx context.Context) ([]*domain.ThreadRecord, error)
}
