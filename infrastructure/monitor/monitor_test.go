package monitor

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick-backtest/market"
	"tick-backtest/sim"
)

var (
	_ market.AggregateObserver = (*Monitor)(nil)
	_ sim.Observer             = (*Monitor)(nil)
)

func TestObserveCandles(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveCandles("ETHUSDT", 10, 3)
	m.ObserveCandles("ETHUSDT", 5, 0)
	m.ObserveCandles("BTCUSDT", 2, 1)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.candles.WithLabelValues("ETHUSDT")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.emptyCandles.WithLabelValues("ETHUSDT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emptyCandles.WithLabelValues("BTCUSDT")))
}

func TestObserveSimulation(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveSimulation("fs", sim.TradingStats{PnL: 3, SharpeRatio: 1.5, MaxDrawdown: 0.5}, 20*time.Millisecond)
	m.ObserveSimulationError("bad", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.simulated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.simErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.pnl.WithLabelValues("fs")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.sharpe.WithLabelValues("fs")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.maxDrawdown.WithLabelValues("fs")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.simDuration))

	m.Reset()
	assert.Equal(t, 0, testutil.CollectAndCount(m.pnl))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveCandles("ETHUSDT", 1, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `bt_backtest_candles_total{instrument="ETHUSDT"} 1`))
}
