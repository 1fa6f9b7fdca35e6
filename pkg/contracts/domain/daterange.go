package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultLookbackYears is the window used when no date spec is given.
const DefaultLookbackYears = 3

// DateRange is a pair of inclusive year-month bounds. A range is
// always fully concrete; a raw date spec never travels past the parser.
type DateRange struct {
	StartYear  int `json:"start_year"`
	StartMonth int `json:"start_month"`
	EndYear    int `json:"end_year"`
	EndMonth   int `json:"end_month"`
}

// Start returns the first calendar day covered by the range.
func (dr DateRange) Start() time.Time {
	return time.Date(dr.StartYear, time.Month(dr.StartMonth), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last calendar day covered by the range.
func (dr DateRange) End() time.Time {
	return time.Date(dr.EndYear, time.Month(dr.EndMonth), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1)
}

// Contains reports whether t falls inside the range bounds.
func (dr DateRange) Contains(t time.Time) bool {
	return !t.Before(dr.Start()) && !t.After(dr.End())
}

func (dr DateRange) String() string {
	return fmt.Sprintf("%04d-%02d..%04d-%02d", dr.StartYear, dr.StartMonth, dr.EndYear, dr.EndMonth)
}

var (
	yearOnlyRe  = regexp.MustCompile(`^\d{4}$`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	yearSpanRe  = regexp.MustCompile(`^(\d{4})\s*-\s*(\d{4})$`)
	lastNRe     = regexp.MustCompile(`^last\s+(\d+)\s+years?$`)
)

// ParseDateSpec turns a free-form date specification into a concrete
// DateRange. Accepted forms: a four-digit year, "YYYY-MM", an inclusive
// "YYYY-YYYY" span, "last N years", and the sentinel "latest" (or an
// empty spec), which resolves to the default lookback window ending at
// the current month.
func ParseDateSpec(spec string, now time.Time) (DateRange, error) {
	spec = strings.ToLower(strings.TrimSpace(spec))

	switch {
	case spec == "" || spec == "latest":
		return lookback(now, DefaultLookbackYears), nil

	case yearOnlyRe.MatchString(spec):
		y, _ := strconv.Atoi(spec)
		return DateRange{StartYear: y, StartMonth: 1, EndYear: y, EndMonth: 12}, nil

	case yearMonthRe.MatchString(spec):
		m := yearMonthRe.FindStringSubmatch(spec)
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo < 1 || mo > 12 {
			return DateRange{}, fmt.Errorf("invalid month in date spec %q", spec)
		}
		return DateRange{StartYear: y, StartMonth: mo, EndYear: y, EndMonth: mo}, nil

	case yearSpanRe.MatchString(spec):
		m := yearSpanRe.FindStringSubmatch(spec)
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end < start {
			return DateRange{}, fmt.Errorf("date spec %q ends before it starts", spec)
		}
		return DateRange{StartYear: start, StartMonth: 1, EndYear: end, EndMonth: 12}, nil

	case lastNRe.MatchString(spec):
		m := lastNRe.FindStringSubmatch(spec)
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			return DateRange{}, fmt.Errorf("date spec %q must cover at least one year", spec)
		}
		return lookback(now, n), nil
	}

	return DateRange{}, fmt.Errorf("unrecognized date spec %q", spec)
}

// lookback returns a window covering the current month and the n-1
// full calendar years before it.
func lookback(now time.Time, n int) DateRange {
	return DateRange{
		StartYear:  now.Year() - (n - 1),
		StartMonth: 1,
		EndYear:    now.Year(),
		EndMonth:   int(now.Month()),
	}
}
