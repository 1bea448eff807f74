package strategy

import (
	"tick-backtest/market"
)

// DefaultForesightQuantity foresight 策略默认每步数量。
const DefaultForesightQuantity = 100

// NewForesight 生成“预知下一根 Candle”的策略：参考价不跌则买入 quantity，否则卖出。
// close 模式参考收盘价，average 模式参考买卖均价的平均值。quantity 为 0 时取 DefaultForesightQuantity。
func NewForesight(mode Mode, name string, candles map[string]*market.CandleSeries, quantity int64) (Strategy, error) {
	if !mode.Valid() {
		return Strategy{}, ErrInvalidMode
	}
	qty := abs(quantity)
	if qty == 0 {
		qty = DefaultForesightQuantity
	}
	if name == "" {
		name = "foresight-" + mode.String()
	}

	names, maxLen := instruments(candles)
	var actions []ActionSet
	for t := 0; t < maxLen-1; t++ {
		set := make(ActionSet, len(names))
		for _, instr := range names {
			s := candles[instr]
			if t >= s.Len()-1 {
				continue
			}
			cur, err := s.At(t)
			if err != nil {
				return Strategy{}, err
			}
			next, err := s.At(t + 1)
			if err != nil {
				return Strategy{}, err
			}
			if referencePrice(mode, cur) <= referencePrice(mode, next) {
				set[instr] = Buy(qty)
			} else {
				set[instr] = Sell(qty)
			}
		}
		actions = append(actions, set)
	}
	return Strategy{Name: name, Mode: mode, Actions: actions}, nil
}

func referencePrice(mode Mode, c market.Candle) float64 {
	if mode == ModeAverage {
		return (c.AvgBuyPrice + c.AvgSellPrice) / 2
	}
	return c.Close
}
