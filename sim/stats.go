package sim

// TradingStats 单个策略一次回放的统计结果。
type TradingStats struct {
	Strategy     string
	PnL          float64
	TradedVolume float64
	MaxDrawdown  float64
	// HoldingTimePercent 持有步数 / 该品种可交易步数，取值 [0,1]。
	HoldingTimePercent map[string]float64
	PositionFlips      map[string]int
	SharpeRatio        float64
	// SortinoRatio 没有亏损步时为 +Inf。
	SortinoRatio float64
	Steps        int
}

// TotalFlips 所有品种翻转次数之和。
func (s TradingStats) TotalFlips() int {
	n := 0
	for _, v := range s.PositionFlips {
		n += v
	}
	return n
}
