package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/shindan/internal/api"
	"github.com/MikeSquared-Agency/shindan/internal/assessor"
	"github.com/MikeSquared-Agency/shindan/internal/config"
	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
	"github.com/MikeSquared-Agency/shindan/internal/hermes"
	"github.com/MikeSquared-Agency/shindan/internal/narrative"
	"github.com/MikeSquared-Agency/shindan/internal/report"
	"github.com/MikeSquared-Agency/shindan/internal/responselog"
	"github.com/MikeSquared-Agency/shindan/internal/session"
	"github.com/MikeSquared-Agency/shindan/internal/slack"
	"github.com/MikeSquared-Agency/shindan/internal/store"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("shindan starting", "port", cfg.Port, "utc_offset_hours", cfg.UTCOffsetHours)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := assessor.Deps{
		Normalizer: diagnosis.Normalizer{Permissive: cfg.PermissiveAnswers},
		Report:     report.Options{Location: cfg.Location(), CTAURL: cfg.CTAURL},
		Logger:     slog.Default(),
	}

	// Sessions
	if cfg.RedisURL != "" {
		rdb, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		deps.Sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		slog.Info("redis session store ready", "ttl", cfg.SessionTTL)
	} else {
		deps.Sessions = session.NewMemoryStore(cfg.SessionTTL)
		slog.Info("in-memory session store ready", "ttl", cfg.SessionTTL)
	}

	// Remote response log (optional)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.Remote = db.ResponseLog()
		slog.Info("database connected, remote logging enabled")
	} else {
		slog.Warn("DATABASE_URL not set, remote logging disabled")
	}

	// Local response log
	deps.File = responselog.NewCSVAppender(cfg.CSVPath)
	slog.Info("file logging enabled", "path", cfg.CSVPath)

	// Narrative
	deps.Narrator = narrative.New(cfg, slog.Default())
	slog.Info("narrative generator ready", "provider", deps.Narrator.Provider())

	// Report
	deps.Renderer = report.NewPDFRenderer(cfg.FontPath, cfg.LogoPath, slog.Default())

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		deps.Events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	// Slack lead notifications (optional)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		deps.Leads = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack lead notifications ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, lead notifications disabled")
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, assessor.New(deps))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("shindan ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("shindan stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
