// Package metrics serves Prometheus metrics for backtest runs.
package metrics

import (
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"
)

// StartMetricsServer 启动Prometheus指标服务器，/metrics 由 handler 提供。
// 监听失败直接返回错误；调用方负责 Shutdown。
func StartMetricsServer(addr string, handler http.Handler, logger *zap.Logger) (*http.Server, net.Addr, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics_server_stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics_server_started", zap.String("addr", ln.Addr().String()))
	return srv, ln.Addr(), nil
}
