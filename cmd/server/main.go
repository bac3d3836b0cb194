package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/site-content/pkg/sitecontent/api"
	"github.com/tendant/site-content/pkg/sitecontent/config"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()
	built, err := cfg.BuildService(ctx, logger)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer built.Close()

	authn, err := cfg.BuildAuthenticator()
	if err != nil {
		logger.Error("Failed to build authenticator", "err", err)
		os.Exit(1)
	}
	if authn == nil {
		logger.Warn("JWT_SECRET is not set, admin routes will reject every request")
	}
	if missing := cfg.Storage.Credentials().Missing(); len(missing) > 0 {
		logger.Warn("storage is not configured, uploads will fail", "missing", missing)
	}

	handler := api.NewHandler(built.Service,
		api.WithAuthenticator(authn),
		api.WithLogger(logger),
		api.WithMaxUploadBytes(cfg.Image.MaxUploadBytes),
		api.WithAllowedOrigins(cfg.AllowedOrigins...),
	)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Mount("/api", handler.Routes())

	logger.Info("site content server starting",
		"environment", cfg.Environment,
		"storage", cfg.Storage.Backend,
		"postgres", cfg.UsesPostgres(),
		"codec", cfg.Text.Codec,
	)
	server.Run()
}
