// Package app assembles the resolution core and its HTTP front end
// into one process: configuration, logging, registry, cache tiers,
// paced client, resolver, routes, and lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"econcli/internal/cache"
	"econcli/internal/config"
	"econcli/internal/infrastructure"
	"econcli/internal/paced"
	"econcli/internal/registry"
	"econcli/internal/resolver"
	"econcli/internal/services"
	transport "econcli/internal/transport/http"
)

// App owns every long-lived component of the server process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Cache    *cache.Layer
	Resolver *resolver.Resolver
	Service  *services.SeriesService
	Server   *http.Server
}

// New builds the full component graph from configuration.
func New(cfg *config.Config) (*App, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg, err := BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	layer, err := cache.NewLayer(cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	client := paced.New(cfg.Fetch, logger)
	res := resolver.New(reg, layer, client, cfg.Resolve, logger)
	svc := services.NewSeriesServiceWithLogger(res, reg.Tickers(), logger)

	handler := transport.NewSeriesHandler(svc, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      transport.NewRouter(handler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Cache:    layer,
		Resolver: res,
		Service:  svc,
		Server:   server,
	}, nil
}

// BuildRegistry loads the source registry, overlaying the configured
// file on the built-in catalog when one is set.
func BuildRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Resolve.RegistryFile != "" {
		reg, err := registry.Load(cfg.Resolve.RegistryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
		return reg, nil
	}
	return registry.NewDefault(), nil
}

// Run serves until the context is cancelled or an interrupt arrives,
// then shuts down gracefully within the configured window.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.Logger.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.Info("shutting down", slog.String("reason", "context cancelled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.Cache.Close()
	infrastructure.CloseLogFile()
	return nil
}
