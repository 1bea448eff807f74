package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tick-backtest/sim"
)

// Monitor Prometheus监控指标收集器。
// 同时实现 market.AggregateObserver 与 sim.Observer。
type Monitor struct {
	registry *prometheus.Registry

	// 聚合指标
	candles      *prometheus.CounterVec
	emptyCandles *prometheus.CounterVec

	// 回测指标
	simulated   prometheus.Counter
	simErrors   prometheus.Counter
	simDuration prometheus.Histogram

	// 策略结果
	pnl         *prometheus.GaugeVec
	sharpe      *prometheus.GaugeVec
	maxDrawdown *prometheus.GaugeVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "bt",
		Subsystem: "backtest",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		candles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "candles_total",
			Help:      "聚合生成的K线数量",
		}, []string{"instrument"}),
		emptyCandles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "empty_candles_total",
			Help:      "没有成交的空窗口数量",
		}, []string{"instrument"}),

		simulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "strategies_simulated_total",
			Help:      "完成回放的策略数",
		}),
		simErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "simulation_errors_total",
			Help:      "回放失败的策略数",
		}),
		simDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "simulation_duration_seconds",
			Help:      "单个策略回放耗时（秒）",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		pnl: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "strategy_pnl",
			Help:      "策略最终盈亏",
		}, []string{"strategy"}),
		sharpe: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "strategy_sharpe",
			Help:      "策略逐步盈亏的夏普比率",
		}, []string{"strategy"}),
		maxDrawdown: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "strategy_max_drawdown",
			Help:      "策略最大回撤",
		}, []string{"strategy"}),
	}
}

// ObserveCandles 记录一个品种的聚合结果
func (m *Monitor) ObserveCandles(instrument string, total, empty int) {
	m.candles.WithLabelValues(instrument).Add(float64(total))
	m.emptyCandles.WithLabelValues(instrument).Add(float64(empty))
}

// ObserveSimulation 记录一个策略的回放结果
func (m *Monitor) ObserveSimulation(strategy string, stats sim.TradingStats, elapsed time.Duration) {
	m.simulated.Inc()
	m.simDuration.Observe(elapsed.Seconds())
	m.pnl.WithLabelValues(strategy).Set(stats.PnL)
	m.sharpe.WithLabelValues(strategy).Set(stats.SharpeRatio)
	m.maxDrawdown.WithLabelValues(strategy).Set(stats.MaxDrawdown)
}

func (m *Monitor) ObserveSimulationError(string, error) {
	m.simErrors.Inc()
}

// Reset 清空按策略打标签的结果（配置热更新后策略集合可能变化）
func (m *Monitor) Reset() {
	m.pnl.Reset()
	m.sharpe.Reset()
	m.maxDrawdown.Reset()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回底层注册表
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
