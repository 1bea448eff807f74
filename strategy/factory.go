package strategy

import (
	"fmt"
	"sort"

	"tick-backtest/market"
)

// Kind 策略生成方式。
type Kind string

const (
	KindRandom    Kind = "random"
	KindForesight Kind = "foresight"
)

// Spec 描述一个待生成的策略（通常来自配置文件）。
type Spec struct {
	Name            string  `yaml:"name"`
	Kind            Kind    `yaml:"kind"`
	Mode            Mode    `yaml:"mode"`
	Quantity        int64   `yaml:"quantity"`        // foresight 每步下单数量，0 取 DefaultForesightQuantity
	MaxQuantity     int64   `yaml:"maxQuantity"`     // random 单步最大数量
	HoldProbability float64 `yaml:"holdProbability"` // random 持有概率
	Seed            uint64  `yaml:"seed"`            // random 种子，0 表示随机
}

// Create 按 Spec.Kind 生成策略。
func Create(spec Spec, candles map[string]*market.CandleSeries) (Strategy, error) {
	switch spec.Kind {
	case KindRandom:
		return NewRandom(spec.Mode, candles, RandomConfig{
			Name:            spec.Name,
			MaxQuantity:     spec.MaxQuantity,
			HoldProbability: spec.HoldProbability,
			Seed:            spec.Seed,
		})
	case KindForesight:
		return NewForesight(spec.Mode, spec.Name, candles, spec.Quantity)
	default:
		return Strategy{}, fmt.Errorf("%w: unknown strategy kind %q", market.ErrValidation, spec.Kind)
	}
}

// instruments 返回排序后的品种名与最长序列长度，保证生成结果可复现。
func instruments(candles map[string]*market.CandleSeries) ([]string, int) {
	names := make([]string, 0, len(candles))
	maxLen := 0
	for name, s := range candles {
		names = append(names, name)
		if s.Len() > maxLen {
			maxLen = s.Len()
		}
	}
	sort.Strings(names)
	return names, maxLen
}
