package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesConsoleFileAndRing(t *testing.T) {
	var console bytes.Buffer
	ring := NewRing(10)
	file := filepath.Join(t.TempDir(), "logs", "wallet.log")

	l, err := New(Config{File: file, MaxSize: 1, Console: &console, Ring: ring})
	require.NoError(t, err)

	l.Named("tx-manager").Info("Transaction confirmed", zap.String("signature", "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"))
	l.Debug("hidden at info level")
	require.NoError(t, l.Sync())

	assert.Contains(t, console.String(), "Transaction confirmed: 5VERv8NM...diSZkQUW")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"signature":"5VERv8NMvzbJ`)
	assert.Contains(t, string(data), `"logger":"tx-manager"`)

	entries := ring.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "Transaction confirmed", entries[0].Message)
	assert.NotEmpty(t, entries[0].Fields["signature"])
}

func TestConsoleAppendsError(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Config{Console: &console, Debug: true})
	require.NoError(t, err)

	l.With(zap.String("op", "balance")).Warn("Balance refresh failed", zap.Error(errors.New("rpc unavailable")))
	assert.Contains(t, console.String(), "Balance refresh failed: rpc unavailable")
}

func TestWithOperationAddsCorrelationID(t *testing.T) {
	ring := NewRing(10)
	l, err := New(Config{Ring: ring, Debug: true})
	require.NoError(t, err)

	done := l.TrackPerformance("send")
	done()

	entries := ring.Recent(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "send", entries[1].Fields["operation"])
	assert.Equal(t, entries[0].Fields["correlation_id"], entries[1].Fields["correlation_id"])
	assert.Contains(t, entries[1].Fields, "duration")
}

func TestWithTransactionAddsSignature(t *testing.T) {
	ring := NewRing(10)
	l, err := New(Config{Ring: ring})
	require.NoError(t, err)

	l.WithTransaction("5VERv8NMvzbJ").Info("Transaction reported")

	entries := ring.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "5VERv8NMvzbJ", entries[0].Fields["signature"])
	assert.Contains(t, entries[0].Fields, "tx_time")
}

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		r.Add(Entry{Message: msg})
	}
	var got []string
	for _, e := range r.Recent(0) {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"c", "d", "e"}, got)

	got = got[:0]
	for _, e := range r.Recent(2) {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"d", "e"}, got)
	assert.Equal(t, uint64(5), r.Total())
}

func TestRingWriteAcceptsPlainText(t *testing.T) {
	r := NewRing(4)
	_, err := r.Write([]byte("not json\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Recent(1)[0].Message, "not json"))
}
