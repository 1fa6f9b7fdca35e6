// Package paced provides the rate-limited, identity-rotating HTTP
// client used for live fetches. It enforces a minimum inter-request
// interval per destination host, rotates a fixed pool of client
// identities, and applies one uniform retry/backoff policy to
// transient failures.
package paced

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"econcli/internal/config"
	apperrors "econcli/internal/errors"
	"econcli/internal/infrastructure"
	"econcli/pkg/contracts/domain"
)

// Identity is one request fingerprint from the rotation pool. Rotation
// changes request framing only, never the data returned.
type Identity struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// defaultIdentities mirrors the header sets of mainstream browsers.
var defaultIdentities = []Identity{
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.5",
	},
}

// RetryPolicy bounds retries of transient failures with exponential
// backoff.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Delay returns the backoff before retry attempt n (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

// Request describes one upstream call. URL defaults to the source
// descriptor's endpoint when empty.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
}

// Client is the paced network client. Safe for concurrent use;
// requests to different hosts proceed independently while requests to
// the same host are spaced by the configured minimum interval.
type Client struct {
	http       *http.Client
	timeout    time.Duration
	interval   time.Duration
	policy     RetryPolicy
	identities []Identity
	nextID     atomic.Uint64
	logger     *slog.Logger

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// New creates a paced client from configuration.
func New(cfg config.FetchConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.RequestTimeout},
		timeout:    cfg.RequestTimeout,
		interval:   cfg.HostInterval,
		policy:     RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBaseDelay},
		identities: defaultIdentities,
		logger:     logger.With(slog.String("component", "paced_client")),
		hosts:      make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the pacing gate for one destination host,
// creating it on first use. Burst 1 makes the limiter a pure
// minimum-spacing gate rather than a token bucket.
func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	lim, ok := c.hosts[host]
	if !ok {
		limit := rate.Inf
		if c.interval > 0 {
			limit = rate.Every(c.interval)
		}
		lim = rate.NewLimiter(limit, 1)
		c.hosts[host] = lim
	}
	return lim
}

// identity returns the next identity from the pool, round-robin.
func (c *Client) identity() Identity {
	n := c.nextID.Add(1)
	return c.identities[int(n)%len(c.identities)]
}

// Fetch performs one upstream call for the given source, pacing,
// retrying, and classifying failures per the client's policy. The
// returned payload is raw; normalization happens elsewhere.
func (c *Client) Fetch(ctx context.Context, desc domain.SourceDescriptor, req Request) ([]byte, error) {
	target := req.URL
	if target == "" {
		target = desc.Endpoint
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return nil, apperrors.NewSourceError(desc.Kind, apperrors.CodeUnreachable,
			fmt.Errorf("invalid endpoint %q", target))
	}

	limiter := c.limiterFor(parsed.Hostname())

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			infrastructure.FetchRetries.Inc()
			if err := sleepCtx(ctx, c.policy.Delay(attempt-1)); err != nil {
				return nil, apperrors.NewSourceError(desc.Kind, apperrors.CodeTimeout, err)
			}
		}

		// The pacing delay counts against the caller's deadline.
		if err := limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewSourceError(desc.Kind, apperrors.CodeTimeout, err)
		}

		payload, retryable, err := c.do(ctx, desc.Kind, target, req)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		c.logger.Debug("retrying transient fetch failure",
			slog.String("url", target),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
	}
	return nil, lastErr
}

// do performs a single attempt and reports whether a failure is worth
// retrying.
func (c *Client) do(ctx context.Context, kind domain.SourceKind, target string, req Request) ([]byte, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, false, apperrors.NewSourceError(kind, apperrors.CodeUnreachable, err)
	}

	id := c.identity()
	httpReq.Header.Set("User-Agent", id.UserAgent)
	httpReq.Header.Set("Accept", id.Accept)
	httpReq.Header.Set("Accept-Language", id.AcceptLanguage)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() != nil {
			return nil, true, apperrors.NewSourceError(kind, apperrors.CodeTimeout, err)
		}
		return nil, true, apperrors.NewSourceError(kind, apperrors.CodeUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, apperrors.NewSourceError(kind, apperrors.CodeRateLimited,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, true, apperrors.NewSourceError(kind, apperrors.CodeUnreachable,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		// Client errors are final; retrying the same request cannot
		// change the answer.
		return nil, false, apperrors.NewSourceError(kind, apperrors.CodeUnreachable,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, apperrors.NewSourceError(kind, apperrors.CodeUnreachable, err)
	}
	return payload, false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
