package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

func newTestClient(t *testing.T, retries int) *Client {
	return New(2*time.Second, retries, zaptest.NewLogger(t)).WithRetryDelay(time.Millisecond)
}

func TestDoJSONRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	err := newTestClient(t, 2).Get(context.Background(), srv.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoJSONGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newTestClient(t, 1).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, walleterr.Retryable(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoJSONClientErrorIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Could not find any route"}`))
	}))
	defer srv.Close()

	err := newTestClient(t, 3).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.False(t, walleterr.Retryable(err))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Contains(t, statusErr.Body, "route")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoBodyJSONSendsPayloadAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := newTestClient(t, 0).DoBodyJSON(context.Background(), http.MethodPost, srv.URL,
		map[string]string{"a": "b"}, map[string]string{"x-api-key": "secret"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}
