package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"skidoodle/spotify-activity/internal/app"
	"skidoodle/spotify-activity/internal/config"
	"skidoodle/spotify-activity/internal/logging"
	"skidoodle/spotify-activity/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logError("failed to load configuration", err)
		os.Exit(1)
	}

	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.Activity.RequestTimeout}

	agg, err := app.NewAggregator(cfg, httpClient)
	if err != nil {
		logError("failed to build activity aggregator", err)
		os.Exit(1)
	}

	srv := server.NewServer(":"+cfg.ServerPort, agg, app.NewGitHub(ctx, cfg, httpClient), server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		DefaultLimit:   cfg.Activity.DefaultLimit,
		MaxAge:         cfg.Activity.MaxAge,
		Live:           cfg.Activity.Live,
		LiveLimit:      cfg.Activity.LiveLimit,
		PollInterval:   cfg.Activity.PollInterval,
		Realtime:       cfg.RT,
	})

	slog.Info("starting spotify activity server", "port", cfg.ServerPort, "spotify", cfg.HasSpotifyCredentials(), "live", cfg.Activity.Live, "realtime", cfg.RT)
	if err := srv.Run(ctx); err != nil {
		logError("server failed", err)
		os.Exit(1)
	}

	slog.Info("server shut down gracefully")
}

// logError logs err under the same "error" key the other packages use.
func logError(msg string, err error) {
	slog.Error(msg, "error", err)
}
