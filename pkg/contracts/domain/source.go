package domain

import (
	"fmt"
	"hash/fnv"
)

// SourceKind identifies one tier of the fallback chain. The set is
// closed; Resolver dispatch matches on it exhaustively.
type SourceKind string

const (
	SourceCache      SourceKind = "cache"
	SourcePersistent SourceKind = "persistent"
	SourceScrape     SourceKind = "scrape"
	SourceAPI        SourceKind = "api"
)

// Valid reports whether k is one of the four known kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceCache, SourcePersistent, SourceScrape, SourceAPI:
		return true
	}
	return false
}

// SourceDescriptor is one candidate source for a ticker. Priority
// ordering defines the fallback chain; lower values are tried first,
// ties broken by declaration order.
type SourceDescriptor struct {
	Kind            SourceKind `json:"kind" yaml:"kind"`
	Priority        int        `json:"priority" yaml:"priority"`
	Endpoint        string     `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	SuccessRateHint float64    `json:"success_rate_hint,omitempty" yaml:"success_rate_hint,omitempty"`
}

// CacheKey identifies one cached series: the requested ticker, the
// source tier that produced it, and a digest of the date range.
type CacheKey struct {
	Ticker    string     `json:"ticker"`
	Kind      SourceKind `json:"source_kind"`
	RangeHash uint64     `json:"date_range_hash"`
}

// NewCacheKey builds the key for a (ticker, source, range) triple.
func NewCacheKey(ticker string, kind SourceKind, dr DateRange) CacheKey {
	return CacheKey{Ticker: ticker, Kind: kind, RangeHash: dr.Hash()}
}

// String renders the key in a form safe for filenames and log fields.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s_%s_%016x", k.Ticker, k.Kind, k.RangeHash)
}

// Hash returns a stable digest of the range bounds.
func (dr DateRange) Hash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%04d-%02d:%04d-%02d", dr.StartYear, dr.StartMonth, dr.EndYear, dr.EndMonth)
	return h.Sum64()
}
