package services

import (
	"context"
	"log/slog"

	"econcli/internal/resolver"
	"econcli/pkg/contracts/domain"
)

// SeriesService is the front-end facing surface over the resolver. It
// exists so the transport layer never touches resolver internals.
type SeriesService struct {
	resolver *resolver.Resolver
	tickers  []string
	logger   *slog.Logger
}

// NewSeriesService creates the service using the default logger.
func NewSeriesService(res *resolver.Resolver, tickers []string) *SeriesService {
	return NewSeriesServiceWithLogger(res, tickers, slog.Default())
}

// NewSeriesServiceWithLogger creates the service with a specific logger.
func NewSeriesServiceWithLogger(res *resolver.Resolver, tickers []string, logger *slog.Logger) *SeriesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeriesService{
		resolver: res,
		tickers:  tickers,
		logger:   logger.With(slog.String("component", "series_service")),
	}
}

// GetSeries resolves one ticker over a free-form date spec.
func (s *SeriesService) GetSeries(ctx context.Context, ticker, dateSpec string) (*domain.Series, error) {
	s.logger.DebugContext(ctx, "resolving series",
		slog.String("ticker", ticker),
		slog.String("date_spec", dateSpec))
	return s.resolver.Resolve(ctx, ticker, dateSpec)
}

// GetBatch resolves several tickers concurrently over one date spec.
func (s *SeriesService) GetBatch(ctx context.Context, tickers []string, dateSpec string) []resolver.BatchItem {
	return s.resolver.ResolveMany(ctx, tickers, dateSpec)
}

// Tickers lists the registered tickers.
func (s *SeriesService) Tickers() []string {
	return s.tickers
}
