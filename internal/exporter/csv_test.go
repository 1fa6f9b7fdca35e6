package exporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econcli/pkg/contracts/domain"
)

func exportSeries() *domain.Series {
	return &domain.Series{
		Info: domain.SeriesInfo{
			ID:           "CPIAUCSL",
			Name:         "Consumer Price Index",
			Frequency:    "monthly",
			Units:        "index_1982_84_100",
			SourceAgency: "Bureau of Labor Statistics",
		},
		Points: []domain.DataPoint{
			{
				Date:           time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				Value:          311.054,
				Period:         "2024-02",
				Year:           2024,
				Month:          2,
				RevisionStatus: domain.RevisionPreliminary,
			},
			{
				Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Value:          309.685,
				Period:         "2024-01",
				Year:           2024,
				Month:          1,
				RevisionStatus: domain.RevisionFinal,
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportSeries()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,value,period,year,month,revision_status", lines[0])
	assert.Equal(t, "2024-02-01,311.054,2024-02,2024,2,preliminary", lines[1])
	assert.Equal(t, "2024-01-01,309.685,2024-01,2024,1,final", lines[2])
}

func TestWriteCSVEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &domain.Series{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "empty series still prints the header")
}

func TestWriteJSONRoundTrips(t *testing.T) {
	want := exportSeries()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, want))

	var got domain.Series
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, want.Equal(&got))
}

func TestWriteInfo(t *testing.T) {
	var buf bytes.Buffer
	WriteInfo(&buf, exportSeries())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# "))
	assert.Contains(t, out, "Consumer Price Index")
	assert.Contains(t, out, "CPIAUCSL")
	assert.Contains(t, out, "Bureau of Labor Statistics")
}
