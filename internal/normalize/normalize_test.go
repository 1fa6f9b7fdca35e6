package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "econcli/internal/errors"
	"econcli/pkg/contracts/domain"
)

var (
	testInfo  = domain.SeriesInfo{ID: "CPIAUCSL", Name: "CPI", Frequency: "monthly"}
	testRange = domain.DateRange{StartYear: 2023, StartMonth: 1, EndYear: 2024, EndMonth: 12}
)

const apiPayload = `{
  "status": "REQUEST_SUCCEEDED",
  "Results": {
    "series": [{
      "seriesID": "CUUR0000SA0",
      "data": [
        {"year": "2024", "period": "M02", "value": "311.054", "footnotes": [{"code": "P", "text": "preliminary"}]},
        {"year": "2024", "period": "M01", "value": "309.685", "footnotes": [{}]},
        {"year": "2024", "period": "M13", "value": "310.000", "footnotes": [{}]},
        {"year": "2023", "period": "M12", "value": "307.051", "footnotes": [{"code": "R", "text": "revised"}]},
        {"year": "2023", "period": "M11", "value": ".", "footnotes": [{}]}
      ]
    }]
  }
}`

func TestNormalizeAPIPayload(t *testing.T) {
	s, err := Normalize([]byte(apiPayload), domain.SourceAPI, testInfo, testRange)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len(), "M13 and missing markers must be dropped")

	assert.Equal(t, testInfo, s.Info)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 2024, latest.Year)
	assert.Equal(t, 2, latest.Month)
	assert.Equal(t, 311.054, latest.Value)
	assert.Equal(t, domain.RevisionPreliminary, latest.RevisionStatus)

	assert.Equal(t, domain.RevisionFinal, s.Points[1].RevisionStatus)
	assert.Equal(t, domain.RevisionRevised, s.Points[2].RevisionStatus)

	for i := 1; i < s.Len(); i++ {
		assert.True(t, s.Points[i-1].Date.After(s.Points[i].Date),
			"points must be most recent first")
	}
}

func TestNormalizeAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "<html>rate limited</html>"},
		{"failed status", `{"status": "REQUEST_NOT_PROCESSED", "message": ["invalid series"]}`},
		{"empty results", `{"status": "REQUEST_SUCCEEDED", "Results": {}}`},
		{"no usable rows", `{"status": "REQUEST_SUCCEEDED", "Results": {"series": [{"data": [
			{"year": "2024", "period": "M13", "value": "1", "footnotes": [{}]}
		]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw), domain.SourceAPI, testInfo, testRange)
			require.Error(t, err)

			var se *apperrors.SourceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, domain.SourceAPI, se.Kind)
			assert.Equal(t, apperrors.CodeParseError, se.Code)
		})
	}
}

func TestNormalizeObservationCSV(t *testing.T) {
	raw := "observation_date,CPIAUCSL\r\n" +
		"2023-11-01,306.746\r\n" +
		"2023-12-01,307.051\r\n" +
		"2024-01-01,.\r\n" +
		"2024-02-01,311.054\r\n"

	s, err := Normalize([]byte(raw), domain.SourceScrape, testInfo, testRange)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "2024-02", latest.Period)
	assert.Equal(t, 311.054, latest.Value)
	assert.Equal(t, domain.RevisionFinal, latest.RevisionStatus,
		"published history carries no revision marks")
}

func TestNormalizeCSVPartialDates(t *testing.T) {
	raw := "date,value\n2024-03,100.0\n"

	s, err := Normalize([]byte(raw), domain.SourceScrape, testInfo, testRange)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), s.Points[0].Date,
		"partial dates resolve to the first day of the period")
}

func TestNormalizeCSVErrors(t *testing.T) {
	for name, raw := range map[string]string{
		"malformed row": "date,value\njust-one-field\n",
		"bad date":      "date,value\nnot-a-date,1.0\n",
		"only missing":  "date,value\n2024-01-01,.\n",
		"empty payload": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize([]byte(raw), domain.SourceScrape, testInfo, testRange)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeParseError, apperrors.CodeOf(err))
		})
	}
}

func TestNormalizeFiltersRange(t *testing.T) {
	raw := "date,value\n" +
		"2022-12-01,295.0\n" + // before the window
		"2023-06-01,303.8\n" +
		"2025-01-01,315.0\n" // after the window

	s, err := Normalize([]byte(raw), domain.SourceScrape, testInfo, testRange)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 303.8, s.Points[0].Value)
}

func TestNormalizeDedupesByRevision(t *testing.T) {
	t.Run("higher rank wins regardless of order", func(t *testing.T) {
		raw := `{"status": "REQUEST_SUCCEEDED", "Results": {"series": [{"data": [
			{"year": "2024", "period": "M01", "value": "309.7", "footnotes": [{}]},
			{"year": "2024", "period": "M01", "value": "309.1", "footnotes": [{"code": "P"}]}
		]}]}}`

		s, err := Normalize([]byte(raw), domain.SourceAPI, testInfo, testRange)
		require.NoError(t, err)
		require.Equal(t, 1, s.Len())
		assert.Equal(t, 309.7, s.Points[0].Value)
		assert.Equal(t, domain.RevisionFinal, s.Points[0].RevisionStatus)
	})

	t.Run("equal rank keeps the later record", func(t *testing.T) {
		raw := `{"status": "REQUEST_SUCCEEDED", "Results": {"series": [{"data": [
			{"year": "2024", "period": "M01", "value": "309.1", "footnotes": [{}]},
			{"year": "2024", "period": "M01", "value": "309.7", "footnotes": [{}]}
		]}]}}`

		s, err := Normalize([]byte(raw), domain.SourceAPI, testInfo, testRange)
		require.NoError(t, err)
		require.Equal(t, 1, s.Len())
		assert.Equal(t, 309.7, s.Points[0].Value)
	})
}

func TestNormalizeRejectsCacheTierKinds(t *testing.T) {
	for _, kind := range []domain.SourceKind{domain.SourceCache, domain.SourcePersistent} {
		_, err := Normalize([]byte("{}"), kind, testInfo, testRange)
		assert.Error(t, err, string(kind))
	}
}
