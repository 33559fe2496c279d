package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(client *http.Client) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
}

func getter(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoRequestWithResilience_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := DoRequestWithResilience(context.Background(), "test", testConfig(srv.Client()), NewCircuitBreaker("retry"), getter(srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoRequestWithResilience_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := DoRequestWithResilience(context.Background(), "test", testConfig(srv.Client()), NewCircuitBreaker("client-error"), getter(srv.URL))
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoRequestWithResilience_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := DoRequestWithResilience(context.Background(), "test", testConfig(srv.Client()), NewCircuitBreaker("give-up"), getter(srv.URL))
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestDoRequestWithResilience_RequiresClient(t *testing.T) {
	_, err := DoRequestWithResilience(context.Background(), "test", HTTPClientConfig{Backoff: DefaultBackoff}, NewCircuitBreaker("nil"), getter("http://example.invalid"))
	assert.Error(t, err)
}
