// Package cache implements the two-tier series cache: a bounded
// in-process LRU tier in front of a disk-backed tier that survives
// restarts. The layer owns entry lifecycle end to end; no other
// component touches an entry directly.
package cache

import (
	"log/slog"
	"time"

	"econcli/internal/config"
	apperrors "econcli/internal/errors"
	"econcli/pkg/contracts/domain"
)

// Layer is the two-tier cache consulted by the resolver.
type Layer struct {
	volatile   *Volatile
	persistent *Persistent
	ttl        time.Duration
	logger     *slog.Logger
}

// NewLayer builds both tiers from configuration.
func NewLayer(cfg config.CacheConfig, logger *slog.Logger) (*Layer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	persistent, err := NewPersistent(cfg.Dir, cfg.PersistentBytes, cfg.SweepInterval, logger)
	if err != nil {
		return nil, err
	}

	return &Layer{
		volatile:   NewVolatile(cfg.VolatileEntries),
		persistent: persistent,
		ttl:        cfg.TTL,
		logger:     logger.With(slog.String("component", "cache_layer")),
	}, nil
}

// TTL returns the configured entry lifetime.
func (l *Layer) TTL() time.Duration { return l.ttl }

// Get checks the volatile tier first, then the persistent tier. A
// persistent hit is promoted into the volatile tier, keeping its
// original freshness window. Absence and staleness both come back as
// the miss sentinel from the errors package.
func (l *Layer) Get(key domain.CacheKey) (*domain.Series, error) {
	now := time.Now()

	if series, ok := l.volatile.Get(key, now); ok {
		return series, nil
	}

	series, fetchedAt, ttl, err := l.persistent.Get(key, now)
	if err != nil {
		return nil, err
	}

	l.volatile.Put(key, series, fetchedAt, ttl)
	return series, nil
}

// GetVolatile checks only the in-process tier.
func (l *Layer) GetVolatile(key domain.CacheKey) (*domain.Series, error) {
	if series, ok := l.volatile.Get(key, time.Now()); ok {
		return series, nil
	}
	return nil, apperrors.ErrMiss
}

// GetPersistent checks only the disk tier, promoting a hit into the
// volatile tier with its original freshness window.
func (l *Layer) GetPersistent(key domain.CacheKey) (*domain.Series, error) {
	series, fetchedAt, ttl, err := l.persistent.Get(key, time.Now())
	if err != nil {
		return nil, err
	}
	l.volatile.Put(key, series, fetchedAt, ttl)
	return series, nil
}

// Put writes the series to both tiers. The persistent write is atomic;
// a disk failure is reported but leaves the volatile tier populated.
func (l *Layer) Put(key domain.CacheKey, series *domain.Series) error {
	now := time.Now()
	l.volatile.Put(key, series, now, l.ttl)
	return l.persistent.Put(key, series, now, l.ttl)
}

// PutVolatileStale plants a stale entry. Only tests use it to exercise
// the expiry path.
func (l *Layer) PutVolatileStale(key domain.CacheKey, series *domain.Series, age time.Duration) {
	l.volatile.Put(key, series, time.Now().Add(-age), l.ttl)
}

// ClearVolatile drops the in-process tier without touching disk.
func (l *Layer) ClearVolatile() {
	l.volatile.Clear()
}

// Close stops the background sweeper.
func (l *Layer) Close() {
	l.persistent.Stop()
}
