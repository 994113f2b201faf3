// internal/app/metrics.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsShutdownTimeout = 2 * time.Second

// metricsServer отдаёт реестр метрик отправки по /metrics.
type metricsServer struct {
	srv    *http.Server
	addr   string
	logger *zap.Logger
}

func startMetricsServer(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	ms := &metricsServer{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		addr:   ln.Addr().String(),
		logger: logger.Named("metrics"),
	}
	go func() {
		if err := ms.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ms.logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	ms.logger.Info("Serving metrics", zap.String("addr", ms.addr))
	return ms, nil
}

func (ms *metricsServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := ms.srv.Shutdown(ctx); err != nil {
		ms.logger.Warn("Metrics server shutdown failed", zap.Error(err))
	}
}
