package bootstrap

import (
	"context"
	"log/slog"

	"reddit-listener/config"
	"reddit-listener/driver"
	"reddit-listener/handler"
	"reddit-listener/repository"
	"reddit-listener/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	DBPool        *pgxpool.Pool
	CrawlHandler  *handler.CrawlHandler
	ThreadHandler *handler.ThreadHandler
	HealthHandler *handler.HealthHandler
	Logger        *slog.Logger
}

// BuildDependencies constructs all application dependencies. Returns a
// cleanup function that should be deferred.
func BuildDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, func(), error) {
	dbPool, err := driver.InitDB(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	threadRepo := repository.NewThreadRepository(dbPool, log)

	fetcher := driver.NewListingFetcher(cfg, log)

	summarizerClient, err := driver.NewGeminiSummarizer(ctx, &cfg.Gemini, log)
	if err != nil {
		dbPool.Close()
		return nil, nil, err
	}

	crawlController := service.NewCrawlController(
		fetcher,
		service.NewThreadExtractor(log),
		service.NewTimeResolver(log),
		threadRepo,
		cfg.Reddit.MaxPages,
		log,
	)
	threadSummarizer := service.NewThreadSummarizer(summarizerClient, threadRepo, cfg.Gemini, log)

	cleanup := func() {
		dbPool.Close()
	}

	return &Dependencies{
		DBPool:        dbPool,
		CrawlHandler:  handler.NewCrawlHandler(crawlController, log),
		ThreadHandler: handler.NewThreadHandler(threadRepo, threadSummarizer, log),
		HealthHandler: handler.NewHealthHandler(dbPool, log),
		Logger:        log,
	}, cleanup, nil
}
