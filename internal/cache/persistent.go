package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "econcli/internal/errors"
	"econcli/internal/infrastructure"
	"econcli/pkg/contracts/domain"
)

// envelope is the on-disk record format. It round-trips the series
// exactly along with the freshness metadata needed for expiry.
type envelope struct {
	Key       domain.CacheKey `json:"key"`
	FetchedAt time.Time       `json:"fetched_at"`
	TTL       time.Duration   `json:"ttl"`
	Series    *domain.Series  `json:"series"`
}

// Persistent is the disk-backed cache tier: one JSON file per key,
// written atomically so a crash mid-write never leaves a corrupt
// entry. A background sweeper reclaims expired files and enforces the
// byte budget; reads never block on it because writers to one key
// never touch another key's file.
type Persistent struct {
	dir           string
	maxBytes      int64
	sweepInterval time.Duration
	logger        *slog.Logger
	stopChan      chan struct{}
}

// NewPersistent creates the persistent tier rooted at dir and starts
// its sweeper. Call Stop on shutdown.
func NewPersistent(dir string, maxBytes int64, sweepInterval time.Duration, logger *slog.Logger) (*Persistent, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Persistent{
		dir:           dir,
		maxBytes:      maxBytes,
		sweepInterval: sweepInterval,
		logger:        logger.With(slog.String("component", "persistent_cache")),
		stopChan:      make(chan struct{}),
	}

	if sweepInterval > 0 {
		go p.sweep()
	}
	return p, nil
}

func (p *Persistent) path(key domain.CacheKey) string {
	return filepath.Join(p.dir, key.String()+".json")
}

// Get returns the stored series for key. Missing and stale entries
// report apperrors.ErrMiss; an unreadable entry is deleted and also
// reported as a miss, never as a parse failure.
func (p *Persistent) Get(key domain.CacheKey, now time.Time) (*domain.Series, time.Time, time.Duration, error) {
	path := p.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			infrastructure.CacheMisses.WithLabelValues("persistent").Inc()
			return nil, time.Time{}, 0, apperrors.ErrMiss
		}
		return nil, time.Time{}, 0, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Series == nil {
		// Self-heal: a corrupt entry is removed and treated as absent.
		p.logger.Warn("deleting corrupt cache entry",
			slog.String("key", key.String()),
			slog.Any("error", err))
		os.Remove(path)
		infrastructure.CacheMisses.WithLabelValues("persistent").Inc()
		return nil, time.Time{}, 0, apperrors.ErrMiss
	}

	if now.Sub(env.FetchedAt) > env.TTL {
		infrastructure.CacheMisses.WithLabelValues("persistent").Inc()
		return nil, time.Time{}, 0, apperrors.ErrMiss
	}

	infrastructure.CacheHits.WithLabelValues("persistent").Inc()
	return env.Series, env.FetchedAt, env.TTL, nil
}

// Put writes the entry atomically: marshal to a temp file in the same
// directory, then rename over the final path. Concurrent writers to
// different keys never interfere; same-key writers resolve last-write-
// wins.
func (p *Persistent) Put(key domain.CacheKey, series *domain.Series, fetchedAt time.Time, ttl time.Duration) error {
	data, err := json.Marshal(envelope{
		Key:       key,
		FetchedAt: fetchedAt,
		TTL:       ttl,
		Series:    series,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(p.dir, ".entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, p.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key if present.
func (p *Persistent) Delete(key domain.CacheKey) {
	os.Remove(p.path(key))
}

// Stop halts the background sweeper.
func (p *Persistent) Stop() {
	close(p.stopChan)
}

func (p *Persistent) sweep() {
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweepOnce(time.Now())
		case <-p.stopChan:
			return
		}
	}
}

// sweepOnce deletes expired entries, then enforces the byte budget by
// dropping the oldest remaining files first.
func (p *Persistent) sweepOnce(now time.Time) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.logger.Warn("cache sweep failed", slog.Any("error", err))
		return
	}

	type fileInfo struct {
		path    string
		size    int64
		modTime time.Time
	}

	var (
		files     []fileInfo
		totalSize int64
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(p.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			p.logger.Warn("sweeping corrupt cache entry", slog.String("path", path))
			os.Remove(path)
			continue
		}
		if now.Sub(env.FetchedAt) > env.TTL {
			os.Remove(path)
			infrastructure.CacheEvictions.WithLabelValues("persistent").Inc()
			continue
		}

		files = append(files, fileInfo{path: path, size: int64(len(data)), modTime: env.FetchedAt})
		totalSize += int64(len(data))
	}

	if p.maxBytes <= 0 || totalSize <= p.maxBytes {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	for _, f := range files {
		if totalSize <= p.maxBytes {
			break
		}
		os.Remove(f.path)
		totalSize -= f.size
		infrastructure.CacheEvictions.WithLabelValues("persistent").Inc()
	}
}
