package domain

import (
	"math"
	"sort"
	"time"
)

// RevisionStatus is the publication lifecycle stage of a data point.
type RevisionStatus string

const (
	RevisionPreliminary RevisionStatus = "preliminary"
	RevisionRevised     RevisionStatus = "revised"
	RevisionFinal       RevisionStatus = "final"
)

// Rank orders revision statuses so that a later publication stage
// supersedes an earlier one: final > revised > preliminary.
func (r RevisionStatus) Rank() int {
	switch r {
	case RevisionFinal:
		return 3
	case RevisionRevised:
		return 2
	case RevisionPreliminary:
		return 1
	default:
		return 0
	}
}

// DataPoint is one observation of an economic indicator.
type DataPoint struct {
	Date           time.Time      `json:"date"`
	Value          float64        `json:"value" validate:"required"`
	Period         string         `json:"period"`
	Year           int            `json:"year"`
	Month          int            `json:"month,omitempty"`
	RevisionStatus RevisionStatus `json:"revision_status"`
}

// Valid reports whether the point carries a usable observation.
// NaN and infinite values are never stored in a Series.
func (p DataPoint) Valid() bool {
	return !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// SeriesInfo describes the series a set of data points belongs to.
type SeriesInfo struct {
	ID                 string `json:"series_id" yaml:"series_id"`
	Name               string `json:"name" yaml:"name"`
	Category           string `json:"category" yaml:"category"`
	Frequency          string `json:"frequency" yaml:"frequency"`
	Units              string `json:"units" yaml:"units"`
	SeasonalAdjustment string `json:"seasonal_adjustment" yaml:"seasonal_adjustment"`
	SourceAgency       string `json:"source_agency" yaml:"source_agency"`
}

// Series is an ordered collection of dated values for one ticker from
// one source. Points are sorted most recent first and no two points
// share a date. A Series is immutable once constructed; concurrent
// readers share it without copying.
type Series struct {
	Info   SeriesInfo  `json:"series"`
	Points []DataPoint `json:"data"`
}

// Len returns the number of data points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Latest returns the most recent data point.
func (s *Series) Latest() (DataPoint, bool) {
	if s.Len() == 0 {
		return DataPoint{}, false
	}
	return s.Points[0], true
}

// SortDescending orders the points most recent first.
func (s *Series) SortDescending() {
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Date.After(s.Points[j].Date)
	})
}

// Equal reports whether two series carry the same observations in the
// same order with the same metadata.
func (s *Series) Equal(other *Series) bool {
	if s.Len() != other.Len() || s.Info != other.Info {
		return false
	}
	for i := range s.Points {
		a, b := s.Points[i], other.Points[i]
		if !a.Date.Equal(b.Date) || a.Value != b.Value ||
			a.Period != b.Period || a.RevisionStatus != b.RevisionStatus {
			return false
		}
	}
	return true
}
