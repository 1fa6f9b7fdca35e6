// Package resolver orchestrates the fallback chain: volatile cache,
// persistent cache, live scrape, official API. Each request walks the
// chain in registry priority order and stops at the first source that
// produces a canonical series.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"econcli/internal/cache"
	"econcli/internal/config"
	apperrors "econcli/internal/errors"
	"econcli/internal/infrastructure"
	"econcli/internal/normalize"
	"econcli/internal/paced"
	"econcli/internal/registry"
	"econcli/pkg/contracts/domain"
)

// Fetcher is the live-tier client. Satisfied by *paced.Client.
type Fetcher interface {
	Fetch(ctx context.Context, desc domain.SourceDescriptor, req paced.Request) ([]byte, error)
}

// Resolver resolves (ticker, date range) requests through the fallback
// chain. Safe for concurrent use; identical in-flight requests are
// coalesced so one live fetch serves every waiting caller.
type Resolver struct {
	registry *registry.Registry
	cache    *cache.Layer
	fetcher  Fetcher
	deadline time.Duration
	workers  int
	logger   *slog.Logger

	group singleflight.Group
}

// New wires a resolver from its collaborators.
func New(reg *registry.Registry, layer *cache.Layer, fetcher Fetcher, cfg config.ResolveConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry: reg,
		cache:    layer,
		fetcher:  fetcher,
		deadline: cfg.Deadline,
		workers:  cfg.Workers,
		logger:   logger.With(slog.String("component", "resolver")),
	}
}

// Resolve parses the date spec and walks the ticker's fallback chain.
// It returns the first canonical series produced, or ErrUnknownTicker,
// or an ExhaustedError aggregating every attempted source's outcome.
func (r *Resolver) Resolve(ctx context.Context, ticker, dateSpec string) (*domain.Series, error) {
	dr, err := domain.ParseDateSpec(dateSpec, time.Now())
	if err != nil {
		return nil, err
	}
	return r.ResolveRange(ctx, ticker, dr)
}

// ResolveRange resolves an already-parsed date range.
func (r *Resolver) ResolveRange(ctx context.Context, ticker string, dr domain.DateRange) (*domain.Series, error) {
	entry, err := r.registry.Lookup(ticker)
	if err != nil {
		return nil, err
	}

	if r.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	flightKey := entry.Ticker + "|" + strconv.FormatUint(dr.Hash(), 16)
	result, err, shared := r.group.Do(flightKey, func() (interface{}, error) {
		return r.walk(ctx, entry, dr)
	})
	if shared {
		infrastructure.CoalescedRequests.Inc()
	}
	if err != nil {
		return nil, err
	}
	return result.(*domain.Series), nil
}

// walk tries each source in priority order. Miss or recoverable
// failure advances to the next source; the first success ends the run.
func (r *Resolver) walk(ctx context.Context, entry *registry.Entry, dr domain.DateRange) (*domain.Series, error) {
	log := infrastructure.LoggerFromContext(ctx).With(
		slog.String("ticker", entry.Ticker),
		slog.String("range", dr.String()))

	chain, err := r.registry.SourcesFor(entry.Ticker)
	if err != nil {
		return nil, err
	}

	// Live kinds in chain order settle which producer's cache entry
	// wins when more than one holds data for the range.
	var liveKinds []domain.SourceKind
	for _, desc := range chain {
		if desc.Kind == domain.SourceScrape || desc.Kind == domain.SourceAPI {
			liveKinds = append(liveKinds, desc.Kind)
		}
	}

	var attempts []*apperrors.SourceError
	for _, desc := range chain {
		if ctx.Err() != nil {
			attempts = append(attempts,
				apperrors.NewSourceError(desc.Kind, apperrors.CodeTimeout, ctx.Err()))
			break
		}

		series, err := r.trySource(ctx, entry, desc, dr, liveKinds)
		if err == nil {
			infrastructure.SourceFetches.WithLabelValues(string(desc.Kind), "success").Inc()
			log.Info("resolved series",
				slog.String("source", string(desc.Kind)),
				slog.Int("points", series.Len()))
			if desc.Kind == domain.SourceScrape || desc.Kind == domain.SourceAPI {
				r.writeBack(entry.Ticker, desc.Kind, dr, series, log)
			}
			return series, nil
		}

		infrastructure.SourceFetches.WithLabelValues(string(desc.Kind), "failure").Inc()
		attempts = append(attempts, asSourceError(desc.Kind, err))
		log.Debug("source did not resolve",
			slog.String("source", string(desc.Kind)),
			slog.String("code", string(apperrors.CodeOf(err))))
	}

	return nil, &apperrors.ExhaustedError{Ticker: entry.Ticker, Range: dr, Attempts: attempts}
}

// trySource dispatches on the source kind. This is the single dispatch
// point for the closed kind set.
func (r *Resolver) trySource(ctx context.Context, entry *registry.Entry, desc domain.SourceDescriptor, dr domain.DateRange, liveKinds []domain.SourceKind) (*domain.Series, error) {
	switch desc.Kind {
	case domain.SourceCache:
		return r.lookupTier(entry.Ticker, dr, liveKinds, r.cache.GetVolatile)
	case domain.SourcePersistent:
		return r.lookupTier(entry.Ticker, dr, liveKinds, r.cache.GetPersistent)
	case domain.SourceScrape:
		return r.fetchScrape(ctx, entry, desc, dr)
	case domain.SourceAPI:
		return r.fetchAPI(ctx, entry, desc, dr)
	default:
		return nil, apperrors.NewSourceError(desc.Kind, apperrors.CodeMiss,
			fmt.Errorf("unknown source kind %q", desc.Kind))
	}
}

// lookupTier checks one cache tier under each live producer's key, in
// chain order.
func (r *Resolver) lookupTier(ticker string, dr domain.DateRange, liveKinds []domain.SourceKind, get func(domain.CacheKey) (*domain.Series, error)) (*domain.Series, error) {
	for _, kind := range liveKinds {
		series, err := get(domain.NewCacheKey(ticker, kind, dr))
		if err == nil {
			return series, nil
		}
		if !apperrors.IsMiss(err) {
			return nil, err
		}
	}
	return nil, apperrors.ErrMiss
}

// fetchScrape pulls the published observation file for the series.
func (r *Resolver) fetchScrape(ctx context.Context, entry *registry.Entry, desc domain.SourceDescriptor, dr domain.DateRange) (*domain.Series, error) {
	payload, err := r.fetcher.Fetch(ctx, desc, paced.Request{})
	if err != nil {
		return nil, err
	}
	return r.normalizeLive(payload, desc.Kind, entry, dr)
}

// fetchAPI posts a timeseries query to the official endpoint.
func (r *Resolver) fetchAPI(ctx context.Context, entry *registry.Entry, desc domain.SourceDescriptor, dr domain.DateRange) (*domain.Series, error) {
	body, err := json.Marshal(map[string]interface{}{
		"seriesid":  []string{entry.BLSSeriesID},
		"startyear": strconv.Itoa(dr.StartYear),
		"endyear":   strconv.Itoa(dr.EndYear),
	})
	if err != nil {
		return nil, apperrors.NewSourceError(desc.Kind, apperrors.CodeParseError, err)
	}

	payload, err := r.fetcher.Fetch(ctx, desc, paced.Request{
		Method:      "POST",
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return r.normalizeLive(payload, desc.Kind, entry, dr)
}

func (r *Resolver) normalizeLive(payload []byte, kind domain.SourceKind, entry *registry.Entry, dr domain.DateRange) (*domain.Series, error) {
	series, err := normalize.Normalize(payload, kind, entry.Info, dr)
	if err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, apperrors.NewSourceError(kind, apperrors.CodeNoData,
			fmt.Errorf("source answered but holds no data in %s", dr))
	}
	return series, nil
}

// writeBack stores a live result in both cache tiers so the next
// identical request hits the volatile tier. A disk failure is logged,
// not surfaced; the caller already has its series.
func (r *Resolver) writeBack(ticker string, kind domain.SourceKind, dr domain.DateRange, series *domain.Series, log *slog.Logger) {
	key := domain.NewCacheKey(ticker, kind, dr)
	if err := r.cache.Put(key, series); err != nil {
		log.Warn("cache write-back failed",
			slog.String("key", key.String()),
			slog.Any("error", err))
	}
}

func asSourceError(kind domain.SourceKind, err error) *apperrors.SourceError {
	var se *apperrors.SourceError
	if errors.As(err, &se) {
		return se
	}
	return apperrors.NewSourceError(kind, apperrors.CodeOf(err), err)
}
