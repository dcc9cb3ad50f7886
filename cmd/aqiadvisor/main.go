package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "aqiadvisor/internal/adapter/http"
	"aqiadvisor/internal/adapter/memory"
	"aqiadvisor/internal/adapter/postgres"
	"aqiadvisor/internal/adapter/renderer"
	"aqiadvisor/internal/app"
	"aqiadvisor/internal/config"
	"aqiadvisor/internal/dataset"
	"aqiadvisor/internal/domain"
	"aqiadvisor/internal/logging"
)

type store interface {
	domain.UserRepository
	domain.HistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSON(os.Stderr, "info").Error(context.Background(), "failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	var db store
	if cfg.DatabaseURL == "" {
		logger.Warn(ctx, "DATABASE_URL not set, using in-memory store")
		db = memory.New()
	} else {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		db = pg
	}

	var chartRenderer domain.ChartRenderer = renderer.Noop{}
	if cfg.RendererURL != "" {
		chartRenderer = renderer.NewHTTPRenderer(cfg.RendererURL, nil, cfg.RendererTimeout)
	}

	data := dataset.New(cfg.DatasetPath, logger)
	_ = data.Load(ctx)
	reloader := dataset.NewReloader(data, cfg.DatasetReloadInterval, logger)
	if err := reloader.Start(); err != nil {
		return err
	}
	defer reloader.Stop()

	authSvc := app.NewAuthService(db, logger)
	advisorySvc := app.NewAdvisoryService(db, db, domain.DefaultAQITable(), cfg.HistoryLimit, logger)
	chartsSvc := app.NewChartsService(chartRenderer, data, logger)

	srv := adapthttp.New(authSvc, advisorySvc, chartsSvc, logger)
	if cfg.OIDC.Enabled() {
		sso, err := adapthttp.NewSSO(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithSSO(sso)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
