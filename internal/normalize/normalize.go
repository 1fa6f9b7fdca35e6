// Package normalize is the single seam between source-specific raw
// payloads and the canonical series representation. Nothing outside
// this package interprets an upstream wire format.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apperrors "econcli/internal/errors"
	"econcli/pkg/contracts/domain"
)

// Normalize converts one source's raw payload into a canonical Series:
// dates resolved to the first day of their period, missing markers
// dropped, duplicates collapsed by revision status, points filtered to
// the requested range and sorted most recent first.
func Normalize(raw []byte, kind domain.SourceKind, info domain.SeriesInfo, dr domain.DateRange) (*domain.Series, error) {
	var (
		points []domain.DataPoint
		err    error
	)

	switch kind {
	case domain.SourceAPI:
		points, err = parseAPIPayload(raw)
	case domain.SourceScrape:
		points, err = parseObservationCSV(raw)
	default:
		err = fmt.Errorf("source kind %q produces canonical data, not raw payloads", kind)
	}
	if err != nil {
		return nil, apperrors.NewSourceError(kind, apperrors.CodeParseError, err)
	}

	series := &domain.Series{
		Info:   info,
		Points: dedupe(filterRange(points, dr)),
	}
	series.SortDescending()
	return series, nil
}

// parseAPIPayload reads the official timeseries API response shape:
// a REQUEST_SUCCEEDED envelope holding one series with records of
// {year, period, value, footnotes}. Period codes M01..M12 name the
// month; M13 annual averages are skipped. A footnote code P marks a
// preliminary value, R a revised one; everything else is final.
func parseAPIPayload(raw []byte) ([]domain.DataPoint, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)

	if status := doc.Get("status").String(); status != "REQUEST_SUCCEEDED" {
		return nil, fmt.Errorf("api request failed with status %q", status)
	}

	records := doc.Get("Results.series.0.data")
	if !records.Exists() {
		return nil, fmt.Errorf("payload carries no series data")
	}

	var points []domain.DataPoint
	records.ForEach(func(_, rec gjson.Result) bool {
		year := int(rec.Get("year").Int())
		period := rec.Get("period").String()

		month, ok := monthFromPeriod(period)
		if !ok || year == 0 {
			return true
		}

		value, ok := parseValue(rec.Get("value").String())
		if !ok {
			return true
		}

		status := domain.RevisionFinal
		rec.Get("footnotes").ForEach(func(_, fn gjson.Result) bool {
			switch fn.Get("code").String() {
			case "P":
				status = domain.RevisionPreliminary
			case "R":
				status = domain.RevisionRevised
			}
			return true
		})

		points = append(points, domain.DataPoint{
			Date:           time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
			Value:          value,
			Period:         fmt.Sprintf("%04d-%02d", year, month),
			Year:           year,
			Month:          month,
			RevisionStatus: status,
		})
		return true
	})

	if len(points) == 0 {
		return nil, fmt.Errorf("payload carries no usable observations")
	}
	return points, nil
}

// parseObservationCSV reads the published observation CSV shape: a
// header line followed by date,value rows. A bare "." marks a missing
// observation. Published history carries no revision marks, so points
// are final.
func parseObservationCSV(raw []byte) ([]domain.DataPoint, error) {
	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")

	var points []domain.DataPoint
	sawHeader := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed observation row %q", line)
		}

		dateField := strings.TrimSpace(fields[0])
		if !sawHeader {
			lower := strings.ToLower(dateField)
			if lower == "date" || lower == "observation_date" {
				sawHeader = true
				continue
			}
		}

		date, err := parseObservationDate(dateField)
		if err != nil {
			return nil, err
		}

		value, ok := parseValue(strings.TrimSpace(fields[1]))
		if !ok {
			continue
		}

		points = append(points, domain.DataPoint{
			Date:           date,
			Value:          value,
			Period:         date.Format("2006-01"),
			Year:           date.Year(),
			Month:          int(date.Month()),
			RevisionStatus: domain.RevisionFinal,
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("payload carries no usable observations")
	}
	return points, nil
}

// parseObservationDate canonicalizes the date forms the observation
// files use. Partial dates resolve to the first day of the period.
func parseObservationDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized observation date %q", s)
}

// monthFromPeriod maps a period code to a calendar month. M13 is the
// annual average, which has no calendar date.
func monthFromPeriod(period string) (int, bool) {
	if len(period) != 3 || period[0] != 'M' {
		return 0, false
	}
	m, err := strconv.Atoi(period[1:])
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

// parseValue converts an upstream value field, rejecting sentinel
// missing markers rather than coercing them to zero.
func parseValue(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	switch s {
	case "", ".", "-", "N/A", "n/a":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	p := domain.DataPoint{Value: v}
	if !p.Valid() {
		return 0, false
	}
	return v, true
}

func filterRange(points []domain.DataPoint, dr domain.DateRange) []domain.DataPoint {
	kept := points[:0]
	for _, p := range points {
		if dr.Contains(p.Date) {
			kept = append(kept, p)
		}
	}
	return kept
}

// dedupe collapses records sharing a date. The highest revision rank
// wins; on equal rank the later record supersedes the earlier one.
func dedupe(points []domain.DataPoint) []domain.DataPoint {
	byDate := make(map[time.Time]domain.DataPoint, len(points))
	for _, p := range points {
		key := p.Date
		if prev, ok := byDate[key]; ok && prev.RevisionStatus.Rank() > p.RevisionStatus.Rank() {
			continue
		}
		byDate[key] = p
	}

	out := make([]domain.DataPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
