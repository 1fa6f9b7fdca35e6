package errors

import (
	"errors"
	"fmt"
	"strings"

	"econcli/pkg/contracts/domain"
)

// FailureCode classifies why a single source attempt did not produce a
// usable series.
type FailureCode string

const (
	CodeMiss          FailureCode = "miss"
	CodeRateLimited   FailureCode = "rate_limited"
	CodeTimeout       FailureCode = "timeout"
	CodeUnreachable   FailureCode = "unreachable"
	CodeParseError    FailureCode = "parse_error"
	CodeNoData        FailureCode = "no_data"
	CodeCorruption    FailureCode = "cache_corruption"
	CodeUnknownTicker FailureCode = "unknown_ticker"
)

// ErrMiss signals absence from a cache tier. It is not a failure; the
// resolver advances to the next source when it sees it.
var ErrMiss = errors.New("miss")

// ErrUnknownTicker is returned when no registry entry matches the
// requested ticker. It is never retried.
var ErrUnknownTicker = errors.New("unknown ticker")

// SourceError records the outcome of one failed source attempt.
type SourceError struct {
	Kind domain.SourceKind
	Code FailureCode
	Err  error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps err as a classified failure of one source.
func NewSourceError(kind domain.SourceKind, code FailureCode, err error) *SourceError {
	return &SourceError{Kind: kind, Code: code, Err: err}
}

// Transient reports whether the failure may succeed on retry.
func (e *SourceError) Transient() bool {
	switch e.Code {
	case CodeRateLimited, CodeTimeout, CodeUnreachable:
		return true
	}
	return false
}

// ExhaustedError aggregates the per-source outcomes of a resolution run
// that walked the whole fallback chain without producing a series.
// Callers use it to tell "all sources are down" apart from "no data
// exists for this range".
type ExhaustedError struct {
	Ticker   string
	Range    domain.DateRange
	Attempts []*SourceError
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("resolve %s %s: all sources exhausted [%s]",
		e.Ticker, e.Range, strings.Join(parts, "; "))
}

// AllMisses reports whether every attempt was a plain absence rather
// than an operational failure, meaning no data exists for the range.
func (e *ExhaustedError) AllMisses() bool {
	for _, a := range e.Attempts {
		if a.Code != CodeMiss && a.Code != CodeNoData {
			return false
		}
	}
	return len(e.Attempts) > 0
}

// IsMiss reports whether err is a cache-tier absence.
func IsMiss(err error) bool { return errors.Is(err, ErrMiss) }

// IsUnknownTicker reports whether err means the ticker has no registry
// entry.
func IsUnknownTicker(err error) bool { return errors.Is(err, ErrUnknownTicker) }

// CodeOf extracts the failure code from a source error chain, or
// classifies a bare error as a miss/unknown-ticker sentinel.
func CodeOf(err error) FailureCode {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code
	}
	switch {
	case errors.Is(err, ErrMiss):
		return CodeMiss
	case errors.Is(err, ErrUnknownTicker):
		return CodeUnknownTicker
	}
	return CodeUnreachable
}
