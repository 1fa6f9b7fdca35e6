package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the structured error body the HTTP front end serializes.
// Callers receive a coded error, never a bare stack trace.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest  = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrInvalidDateSpec = New(http.StatusBadRequest, "INVALID_DATE_SPEC", "Unrecognized date specification")
	ErrTickerUnknown   = New(http.StatusNotFound, "UNKNOWN_TICKER", "Ticker is not registered")
	ErrSeriesExhausted = New(http.StatusBadGateway, "SOURCES_EXHAUSTED", "All data sources failed or missed")
	ErrNoData          = New(http.StatusNotFound, "NO_DATA", "No data exists for the requested range")
	ErrRequestTimeout  = New(http.StatusGatewayTimeout, "TIMEOUT", "Resolution deadline exceeded")
	ErrInternalServer  = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// AttemptDetail is the per-source diagnostic attached to an exhausted
// resolution response.
type AttemptDetail struct {
	Source string `json:"source"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

// ExhaustedResponse builds the user-visible error for an exhausted
// fallback chain, distinguishing "nothing exists for this range" from
// "sources are currently failing".
func ExhaustedResponse(ex *ExhaustedError) *APIError {
	details := make([]AttemptDetail, 0, len(ex.Attempts))
	for _, a := range ex.Attempts {
		d := AttemptDetail{Source: string(a.Kind), Code: string(a.Code)}
		if a.Err != nil {
			d.Reason = a.Err.Error()
		}
		details = append(details, d)
	}
	base := ErrSeriesExhausted
	if ex.AllMisses() {
		base = ErrNoData
	}
	return NewWithDetails(base.StatusCode, base.ErrorCode, base.Message, details)
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}
