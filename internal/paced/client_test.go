package paced

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econcli/internal/config"
	apperrors "econcli/internal/errors"
	"econcli/pkg/contracts/domain"
)

func newTestClient(interval time.Duration, retries int) *Client {
	return New(config.FetchConfig{
		HostInterval:   interval,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     retries,
		RetryBaseDelay: 10 * time.Millisecond,
	}, nil)
}

func scrapeDesc(endpoint string) domain.SourceDescriptor {
	return domain.SourceDescriptor{Kind: domain.SourceScrape, Priority: 2, Endpoint: endpoint}
}

func TestFetchReturnsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "date,value\n2024-01-01,310.3\n")
	}))
	defer srv.Close()

	c := newTestClient(0, 0)
	payload, err := c.Fetch(context.Background(), scrapeDesc(srv.URL), Request{})
	require.NoError(t, err)
	assert.Contains(t, string(payload), "310.3")
}

func TestFetchSpacesRequestsToOneHost(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	interval := 150 * time.Millisecond
	c := newTestClient(interval, 0)
	desc := scrapeDesc(srv.URL)

	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background(), desc, Request{})
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, interval-10*time.Millisecond,
			"same-host requests must honor the minimum interval")
	}
}

func TestFetchRotatesIdentities(t *testing.T) {
	var (
		mu     sync.Mutex
		agents []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := newTestClient(0, 0)
	desc := scrapeDesc(srv.URL)
	for i := 0; i < len(defaultIdentities); i++ {
		_, err := c.Fetch(context.Background(), desc, Request{})
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	seen := make(map[string]bool)
	for _, ua := range agents {
		assert.NotEmpty(t, ua)
		seen[ua] = true
	}
	assert.Equal(t, len(defaultIdentities), len(seen),
		"each request must carry the next identity from the pool")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := newTestClient(0, 3)
	payload, err := c.Fetch(context.Background(), scrapeDesc(srv.URL), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(payload))
	assert.Equal(t, 3, calls)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(0, 3)
	_, err := c.Fetch(context.Background(), scrapeDesc(srv.URL), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx responses are final")

	var se *apperrors.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, apperrors.CodeUnreachable, se.Code)
}

func TestFetchClassifiesRateLimiting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(0, 1)
	_, err := c.Fetch(context.Background(), scrapeDesc(srv.URL), Request{})
	require.Error(t, err)

	var se *apperrors.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, apperrors.CodeRateLimited, se.Code)
	assert.True(t, se.Transient())
}

func TestFetchHonorsContextDuringPacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := newTestClient(time.Hour, 0)
	desc := scrapeDesc(srv.URL)

	// First request consumes the burst; the second would wait an hour.
	_, err := c.Fetch(context.Background(), desc, Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, desc, Request{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTimeout, apperrors.CodeOf(err))
}

func TestFetchRejectsInvalidEndpoint(t *testing.T) {
	c := newTestClient(0, 0)
	_, err := c.Fetch(context.Background(), scrapeDesc("not a url"), Request{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnreachable, apperrors.CodeOf(err))
}

func TestFetchPostCarriesBody(t *testing.T) {
	var (
		gotMethod      string
		gotBody        []byte
		gotContentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, "{}")
	}))
	defer srv.Close()

	c := newTestClient(0, 0)
	desc := domain.SourceDescriptor{Kind: domain.SourceAPI, Priority: 3, Endpoint: srv.URL}
	_, err := c.Fetch(context.Background(), desc, Request{
		Method:      http.MethodPost,
		Body:        []byte(`{"seriesid":["CUUR0000SA0"]}`),
		ContentType: "application/json",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"seriesid":["CUUR0000SA0"]}`, string(gotBody))
}

func TestRetryPolicyDelayGrowsExponentially(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
}
