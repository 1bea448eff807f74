package market

import (
	"fmt"
	"time"
)

// Candle 一个固定时间窗口内的成交统计。
// 窗口内没有成交时 OHLC 全为 0；某一方向没有成交时该方向的均价与成交量为 0。
type Candle struct {
	Start        time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	AvgBuyPrice  float64 // 买方成交量加权均价
	AvgSellPrice float64 // 卖方成交量加权均价
	BuyVolume    float64
	SellVolume   float64
	Trades       int
}

// Empty 窗口内是否没有成交。
func (c Candle) Empty() bool { return c.Trades == 0 }

// CandleSeries 单个品种按固定步长排列、无空洞的 Candle 序列，生成后只读。
type CandleSeries struct {
	Instrument string
	windowMs   int64
	candles    []Candle
}

// NewCandleSeries 复制 candles 构造序列。
func NewCandleSeries(instrument string, windowMs int64, candles []Candle) *CandleSeries {
	cp := make([]Candle, len(candles))
	copy(cp, candles)
	return &CandleSeries{Instrument: instrument, windowMs: windowMs, candles: cp}
}

// Len 序列长度（窗口个数）。
func (s *CandleSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candles)
}

// WindowMs 窗口宽度（毫秒）。
func (s *CandleSeries) WindowMs() int64 { return s.windowMs }

// Window 窗口宽度。
func (s *CandleSeries) Window() time.Duration {
	return time.Duration(s.windowMs) * time.Millisecond
}

// At 返回下标 i 的 Candle；越界返回 ErrIndexOutOfRange。
func (s *CandleSeries) At(i int) (Candle, error) {
	if i < 0 || i >= s.Len() {
		return Candle{}, fmt.Errorf("%w: %s[%d] (len %d)", ErrIndexOutOfRange, s.name(), i, s.Len())
	}
	return s.candles[i], nil
}

// Has 下标 i 是否存在。
func (s *CandleSeries) Has(i int) bool { return i >= 0 && i < s.Len() }

// Candles 返回副本，调用方修改不影响序列本身。
func (s *CandleSeries) Candles() []Candle {
	if s == nil {
		return nil
	}
	cp := make([]Candle, len(s.candles))
	copy(cp, s.candles)
	return cp
}

// EmptyCount 没有成交的窗口数。
func (s *CandleSeries) EmptyCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.candles {
		if c.Empty() {
			n++
		}
	}
	return n
}

func (s *CandleSeries) name() string {
	if s == nil || s.Instrument == "" {
		return "series"
	}
	return s.Instrument
}
