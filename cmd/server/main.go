package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmercier/pricewatch/internal/bot"
	"github.com/lmercier/pricewatch/internal/config"
	"github.com/lmercier/pricewatch/internal/models"
	"github.com/lmercier/pricewatch/internal/repository/sqlite"
	"github.com/lmercier/pricewatch/internal/scheduler"
	"github.com/lmercier/pricewatch/internal/scraper"
	"github.com/lmercier/pricewatch/internal/server"
	"github.com/lmercier/pricewatch/internal/services/tracker"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load() // load .env if present; not fatal if missing

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	repo, err := sqlite.NewRepository(ctx, logger, cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to init repository: %v", err)
	}
	defer repo.Close()

	pageScraper := scraper.NewScraper(logger, cfg.MarketplaceHost, cfg.FetchTimeout, cfg.ScraperStrict)
	trk := tracker.NewTracker(logger, pageScraper, repo, cfg.SweepDelay)

	// The Telegram notifier is optional: without a token the service only
	// exposes the HTTP API.
	var onSweep scheduler.SummaryFunc
	var notifier *bot.Bot
	if cfg.Tg.Token != "" {
		notifier, err = bot.NewBot(logger, repo, cfg.Tg.Token, cfg.Tg.Timeout)
		if err != nil {
			log.Fatalf("Failed to init bot: %v", err)
		}
		go notifier.Start()
		onSweep = func(ctx context.Context, summary *models.SweepSummary) {
			notifier.NotifySweep(ctx, summary)
		}
	}

	sched := scheduler.Start(ctx, logger, trk, cfg.UpdateInterval, onSweep)

	api := server.New(logger, trk, repo)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	sched.Stop()
	if notifier != nil {
		notifier.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
