package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/api"
	"github.com/lysyi3m/rss-aggregator/app/cache"
	"github.com/lysyi3m/rss-aggregator/app/cfg"
	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
	"github.com/lysyi3m/rss-aggregator/app/ingest"
	"github.com/lysyi3m/rss-aggregator/app/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if config == nil {
		return nil
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting RSS aggregator", "version", config.Version, "port", config.Port)

	db, err := database.Open(config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, _, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", config.DBPath, "schema_version", version)

	streamRepo := database.NewStreamRepository(db)
	itemRepo := database.NewItemRepository(db)
	filterRepo := database.NewFilterRepository(db)
	userRepo := database.NewUserRepository(db)

	ctx := context.Background()

	if err := api.EnsureSuperadmin(ctx, userRepo, config.AdminUsername, config.AdminPassword, config.AdminToken); err != nil {
		return err
	}

	var feedCache cache.FeedCache
	if config.RedisAddr != "" {
		redisCache, err := cache.NewCache(ctx, config.RedisAddr)
		if err != nil {
			slog.Warn("Feed cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			feedCache = redisCache
		}
	}

	httpClient := &http.Client{}
	fetcher := feed.NewFetcher(httpClient, config.UserAgent, config.FetchTimeout)
	parser := feed.NewParser()
	resolver := feed.NewImageResolver(httpClient, feed.NewContentExtractor(), config.PageUserAgent, config.FetchTimeout)

	registrar := ingest.NewRegistrar(streamRepo, fetcher, parser)

	streamFile, err := feed.LoadStreamFile(config.StreamsFile)
	if err != nil {
		slog.Warn("Failed to load stream file", "path", config.StreamsFile, "error", err)
	} else if streamFile != nil {
		slog.Info("Seeding from stream file", "path", config.StreamsFile, "streams", len(streamFile.Streams), "filters", len(streamFile.Filters))
		registrar.Seed(ctx, streamFile, filterRepo)
	}

	orchestrator := ingest.NewOrchestrator(streamRepo, filterRepo, itemRepo, fetcher, parser, resolver, config.Retention, config.IngestConcurrency)
	runner := tasks.NewRunner(orchestrator, feedCache)

	slog.Info("Starting background scheduler", "workers", config.WorkerCount, "interval_seconds", config.SchedulerInterval)
	scheduler := tasks.NewScheduler(runner, config.WorkerCount, time.Duration(config.SchedulerInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(api.Dependencies{
		Streams:   streamRepo,
		Items:     itemRepo,
		Filters:   filterRepo,
		Users:     userRepo,
		Registrar: registrar,
		Runner:    runner,
		Scheduler: scheduler,
		Resolver:  resolver,
		Cache:     feedCache,
		Channel: api.Channel{
			Title:       config.FeedTitle,
			Description: config.FeedDescription,
			PublicURL:   config.PublicURL(),
			Version:     config.Version,
			CacheTTL:    config.FeedCacheTTL,
		},
	})

	// Synchronous ingestion runs can exceed the usual write timeout.
	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "feed", config.PublicURL()+"/rss")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return serveErr
}
