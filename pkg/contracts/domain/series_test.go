package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mkPoint(y, m int, v float64) DataPoint {
	return DataPoint{
		Date:           time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC),
		Value:          v,
		Period:         "M" + time.Month(m).String()[:3],
		Year:           y,
		Month:          m,
		RevisionStatus: RevisionFinal,
	}
}

func TestRevisionRankOrdering(t *testing.T) {
	assert.Greater(t, RevisionFinal.Rank(), RevisionRevised.Rank())
	assert.Greater(t, RevisionRevised.Rank(), RevisionPreliminary.Rank())
	assert.Equal(t, 0, RevisionStatus("bogus").Rank())
}

func TestDataPointValid(t *testing.T) {
	assert.True(t, mkPoint(2024, 1, 310.3).Valid())
	assert.False(t, DataPoint{Value: math.NaN()}.Valid())
	assert.False(t, DataPoint{Value: math.Inf(1)}.Valid())
}

func TestSeriesSortDescending(t *testing.T) {
	s := &Series{Points: []DataPoint{
		mkPoint(2023, 5, 1),
		mkPoint(2024, 2, 2),
		mkPoint(2023, 11, 3),
	}}
	s.SortDescending()

	for i := 1; i < len(s.Points); i++ {
		assert.True(t, s.Points[i-1].Date.After(s.Points[i].Date),
			"points must be most recent first")
	}

	latest, ok := s.Latest()
	assert.True(t, ok)
	assert.Equal(t, 2024, latest.Year)
}

func TestSeriesLatestEmpty(t *testing.T) {
	var s *Series
	assert.Equal(t, 0, s.Len())

	_, ok := (&Series{}).Latest()
	assert.False(t, ok)
}

func TestSeriesEqual(t *testing.T) {
	info := SeriesInfo{ID: "CPIAUCSL", Name: "CPI"}
	a := &Series{Info: info, Points: []DataPoint{mkPoint(2024, 1, 310.3)}}
	b := &Series{Info: info, Points: []DataPoint{mkPoint(2024, 1, 310.3)}}

	assert.True(t, a.Equal(b))

	b.Points[0].Value = 311.0
	assert.False(t, a.Equal(b))

	c := &Series{Info: SeriesInfo{ID: "other"}, Points: []DataPoint{mkPoint(2024, 1, 310.3)}}
	assert.False(t, a.Equal(c))
}
