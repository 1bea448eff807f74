package sim

import (
	"fmt"

	"go.uber.org/zap"

	"tick-backtest/market"
	"tick-backtest/strategy"
)

// BuildConfig 描述由配置组装模拟器所需的参数。
type BuildConfig struct {
	Strategies []strategy.Spec
	Workers    int
	Logger     *zap.Logger
	Observer   Observer
}

// Build 基于 Candle 序列与策略描述组装模拟器，按顺序生成并注册策略（同名只保留第一个）。
func Build(candles map[string]*market.CandleSeries, cfg BuildConfig) (*Simulator, error) {
	s, err := New(candles, Config{Workers: cfg.Workers, Logger: cfg.Logger, Observer: cfg.Observer})
	if err != nil {
		return nil, err
	}
	for i, spec := range cfg.Strategies {
		st, err := strategy.Create(spec, candles)
		if err != nil {
			return nil, fmt.Errorf("strategy #%d %q: %w", i, spec.Name, err)
		}
		if err := s.AddStrategy(st); err != nil {
			return nil, fmt.Errorf("strategy #%d %q: %w", i, spec.Name, err)
		}
	}
	return s, nil
}
