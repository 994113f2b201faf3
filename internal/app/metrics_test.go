package app

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
)

func TestMetricsServerExposesSubmitMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := transaction.NewMetrics(registry)
	metrics.TrackAttempt(nil)

	ms, err := startMetricsServer("127.0.0.1:0", registry, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer ms.Close()

	resp, err := http.Get("http://" + ms.addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wallet_tx_submit_attempts_total 1")
}

func TestMetricsServerBadAddress(t *testing.T) {
	_, err := startMetricsServer("256.0.0.1:bad", prometheus.NewRegistry(), zaptest.NewLogger(t))
	assert.Error(t, err)
}
