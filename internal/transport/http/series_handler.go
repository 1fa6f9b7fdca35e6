package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "econcli/internal/errors"
	"econcli/internal/resolver"
	"econcli/pkg/contracts/domain"
)

// SeriesServiceInterface is what the handler needs from the service
// layer. Narrow on purpose so tests can stub it.
type SeriesServiceInterface interface {
	GetSeries(ctx context.Context, ticker, dateSpec string) (*domain.Series, error)
	GetBatch(ctx context.Context, tickers []string, dateSpec string) []resolver.BatchItem
	Tickers() []string
}

// SeriesHandler serves the series resolution endpoints.
type SeriesHandler struct {
	service  SeriesServiceInterface
	logger   *slog.Logger
	validate *validator.Validate
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(service SeriesServiceInterface, logger *slog.Logger) *SeriesHandler {
	return &SeriesHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "series_handler")),
		validate: validator.New(),
	}
}

// Routes returns the series routes
func (h *SeriesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/tickers", h.GetTickers)
	r.Get("/series/{ticker}", h.GetSeries)
	r.Post("/series/batch", h.GetBatch)

	return r
}

// SeriesResponse is the envelope for one resolved series.
type SeriesResponse struct {
	Success bool           `json:"success"`
	Series  *domain.Series `json:"result"`
}

// GetSeries resolves one ticker. The optional ?date= query accepts the
// same specs as the CLI: a year, a year-month, a span, "last N years",
// or "latest".
func (h *SeriesHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	dateSpec := r.URL.Query().Get("date")

	series, err := h.service.GetSeries(r.Context(), ticker, dateSpec)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, SeriesResponse{Success: true, Series: series})
}

// BatchRequest is the body of a batch resolution call.
type BatchRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=32,dive,required"`
	Date    string   `json:"date"`
}

// Bind implements render.Binder.
func (b *BatchRequest) Bind(r *http.Request) error { return nil }

// BatchEntry is one ticker's outcome in a batch response.
type BatchEntry struct {
	Ticker string               `json:"ticker"`
	Series *domain.Series       `json:"result,omitempty"`
	Error  *apierrors.APIError  `json:"error,omitempty"`
}

// BatchResponse wraps a batch resolution outcome.
type BatchResponse struct {
	Success bool         `json:"success"`
	Results []BatchEntry `json:"results"`
}

// GetBatch resolves several tickers in one call. Per-ticker failures
// are reported inline rather than failing the whole batch.
func (h *SeriesHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInvalidRequest))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(
			apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED",
				"Request validation failed", err.Error())))
		return
	}

	items := h.service.GetBatch(r.Context(), req.Tickers, req.Date)
	results := make([]BatchEntry, 0, len(items))
	for _, item := range items {
		entry := BatchEntry{Ticker: item.Ticker, Series: item.Series}
		if item.Err != nil {
			entry.Error = toAPIError(item.Err)
		}
		results = append(results, entry)
	}

	render.JSON(w, r, BatchResponse{Success: true, Results: results})
}

// TickersResponse lists the registered tickers.
type TickersResponse struct {
	Success bool     `json:"success"`
	Tickers []string `json:"tickers"`
}

// GetTickers lists every resolvable ticker.
func (h *SeriesHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, TickersResponse{Success: true, Tickers: h.service.Tickers()})
}

func (h *SeriesHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= 500 {
		h.logger.ErrorContext(r.Context(), "resolution failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	render.Render(w, r, apierrors.NewErrorResponse(apiErr))
}

// toAPIError maps core resolution failures onto the structured wire
// errors. Only the user-visible taxonomy crosses this boundary.
func toAPIError(err error) *apierrors.APIError {
	var ex *apierrors.ExhaustedError
	switch {
	case apierrors.IsUnknownTicker(err):
		return apierrors.ErrTickerUnknown
	case errors.As(err, &ex):
		return apierrors.ExhaustedResponse(ex)
	case errors.Is(err, context.DeadlineExceeded):
		return apierrors.ErrRequestTimeout
	}
	// A date-spec parse failure is the only other error Resolve
	// returns before touching any source.
	return apierrors.NewWithDetails(apierrors.ErrInvalidDateSpec.StatusCode,
		apierrors.ErrInvalidDateSpec.ErrorCode,
		apierrors.ErrInvalidDateSpec.Message, err.Error())
}
