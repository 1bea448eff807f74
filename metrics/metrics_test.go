package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestStartMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
	reg.MustRegister(c)
	c.Add(2)

	srv, addr, err := StartMetricsServer("127.0.0.1:0", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "probe_total 2") {
		t.Fatalf("metric missing from body:\n%s", body)
	}

	resp2, err := http.Get("http://" + addr.String() + "/other")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp2.StatusCode)
	}
}

func TestStartMetricsServerBadAddr(t *testing.T) {
	if _, _, err := StartMetricsServer("256.0.0.1:bad", http.NotFoundHandler(), nil); err == nil {
		t.Fatalf("expected listen error")
	}
}
