// Package registry maps caller-facing tickers onto ordered fallback
// chains of data sources. The registry is loaded once at startup and
// read-only afterwards; lookups are safe for concurrent use.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "econcli/internal/errors"
	"econcli/pkg/contracts/domain"
)

// Endpoint templates for the live tiers. The scrape tier pulls the
// published CSV for a series; the api tier posts to the official
// timeseries endpoint.
const (
	ScrapeEndpointTemplate = "https://fred.stlouisfed.org/graph/fredgraph.csv?id=%s"
	APIEndpoint            = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
)

// Entry describes one registered indicator: its identities at each
// upstream, its output metadata, and its fallback chain.
type Entry struct {
	Ticker       string            `yaml:"ticker"`
	Aliases      []string          `yaml:"aliases,omitempty"`
	BLSSeriesID  string            `yaml:"bls_series_id"`
	FREDSeriesID string            `yaml:"fred_series_id"`
	Info         domain.SeriesInfo `yaml:"info"`

	// Sources overrides the default chain when set.
	Sources []domain.SourceDescriptor `yaml:"sources,omitempty"`

	chain []domain.SourceDescriptor
}

// Registry resolves tickers to source chains. Construct with Load or
// NewDefault; never mutate after construction.
type Registry struct {
	entries map[string]*Entry // keyed by lowercased ticker and aliases
	tickers []string
}

type registryFile struct {
	Series []Entry `yaml:"series"`
}

// NewDefault returns a registry holding the built-in indicator catalog.
func NewDefault() *Registry {
	r, err := build(defaultCatalog())
	if err != nil {
		// The built-in catalog is static; a conflict here is a
		// programming error.
		panic(err)
	}
	return r
}

// Load reads additional series definitions from a YAML file and merges
// them over the built-in catalog. File entries win on ticker conflict.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", path, err)
	}

	merged := defaultCatalog()
	byTicker := make(map[string]int, len(merged))
	for i, e := range merged {
		byTicker[strings.ToLower(e.Ticker)] = i
	}
	for _, e := range file.Series {
		if i, ok := byTicker[strings.ToLower(e.Ticker)]; ok {
			merged[i] = e
			continue
		}
		merged = append(merged, e)
	}

	return build(merged)
}

func build(entries []Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]*Entry, len(entries))}
	for i := range entries {
		e := &entries[i]
		if e.Ticker == "" {
			return nil, fmt.Errorf("registry entry %d has no ticker", i)
		}
		e.chain = buildChain(e)

		for _, name := range append([]string{e.Ticker}, e.Aliases...) {
			key := strings.ToLower(strings.TrimSpace(name))
			if prev, ok := r.entries[key]; ok && prev != e {
				return nil, fmt.Errorf("ticker %q registered twice", name)
			}
			r.entries[key] = e
		}
		r.tickers = append(r.tickers, e.Ticker)
	}
	sort.Strings(r.tickers)
	return r, nil
}

// buildChain produces the ordered fallback chain for an entry: the two
// cache tiers first, then the live tiers. Explicit Sources replace the
// live tiers but the cache tiers always lead the chain.
func buildChain(e *Entry) []domain.SourceDescriptor {
	chain := []domain.SourceDescriptor{
		{Kind: domain.SourceCache, Priority: 0, SuccessRateHint: 1},
		{Kind: domain.SourcePersistent, Priority: 1, SuccessRateHint: 1},
	}

	if len(e.Sources) > 0 {
		chain = append(chain, e.Sources...)
	} else {
		if e.FREDSeriesID != "" {
			chain = append(chain, domain.SourceDescriptor{
				Kind:            domain.SourceScrape,
				Priority:        2,
				Endpoint:        fmt.Sprintf(ScrapeEndpointTemplate, e.FREDSeriesID),
				SuccessRateHint: 0.8,
			})
		}
		if e.BLSSeriesID != "" {
			chain = append(chain, domain.SourceDescriptor{
				Kind:            domain.SourceAPI,
				Priority:        3,
				Endpoint:        APIEndpoint,
				SuccessRateHint: 0.95,
			})
		}
	}

	// Priority defines the walk order; declaration order breaks ties.
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Priority < chain[j].Priority
	})
	return chain
}

// Lookup returns the entry for a ticker or alias.
func (r *Registry) Lookup(ticker string) (*Entry, error) {
	e, ok := r.entries[strings.ToLower(strings.TrimSpace(ticker))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTicker, ticker)
	}
	return e, nil
}

// SourcesFor returns the ordered fallback chain for a ticker. The
// result is deterministic for a given registry snapshot; callers must
// not mutate it.
func (r *Registry) SourcesFor(ticker string) ([]domain.SourceDescriptor, error) {
	e, err := r.Lookup(ticker)
	if err != nil {
		return nil, err
	}
	return e.chain, nil
}

// Tickers lists the registered canonical tickers, sorted.
func (r *Registry) Tickers() []string {
	return r.tickers
}
