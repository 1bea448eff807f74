package market

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"tick-backtest/internal/workpool"
)

// candleBuilder 累积单个窗口内的成交。
type candleBuilder struct {
	c            Candle
	buyNotional  float64
	sellNotional float64
}

func (b *candleBuilder) reset(start time.Time) {
	*b = candleBuilder{c: Candle{Start: start}}
}

func (b *candleBuilder) add(t Tick) {
	if b.c.Trades == 0 {
		b.c.Open, b.c.High, b.c.Low = t.Price, t.Price, t.Price
	}
	if t.Price > b.c.High {
		b.c.High = t.Price
	}
	if t.Price < b.c.Low {
		b.c.Low = t.Price
	}
	b.c.Close = t.Price
	b.c.Trades++

	switch t.Side {
	case SideBuy:
		b.c.BuyVolume += t.Size
		b.buyNotional += t.Price * t.Size
	case SideSell:
		b.c.SellVolume += t.Size
		b.sellNotional += t.Price * t.Size
	}
}

func (b *candleBuilder) candle() Candle {
	c := b.c
	if c.BuyVolume > 0 {
		c.AvgBuyPrice = b.buyNotional / c.BuyVolume
	}
	if c.SellVolume > 0 {
		c.AvgSellPrice = b.sellNotional / c.SellVolume
	}
	return c
}

// Aggregate 将按时间排序的成交重采样为固定窗口 Candle 序列。
// 窗口按 windowMs 对齐到 epoch，从第一笔成交所在窗口开始直到最后一笔，空窗口以全 0 Candle 占位。
func Aggregate(instrument string, ticks []Tick, windowMs int64) (*CandleSeries, error) {
	if windowMs <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowMs)
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTicks, instrument)
	}

	width := windowMs * int64(time.Millisecond/time.Microsecond)
	origin := floorDiv(ticks[0].Ts.UnixMicro(), width) * width
	span := floorDiv(ticks[len(ticks)-1].Ts.UnixMicro()-origin, width) + 1
	if span <= 0 {
		return nil, fmt.Errorf("%w: %s last tick precedes first", ErrUnsortedTicks, instrument)
	}

	candles := make([]Candle, 0, span)
	windowStart := func(idx int64) time.Time {
		return time.UnixMicro(origin + idx*width).UTC()
	}

	var b candleBuilder
	cur := int64(0)
	b.reset(windowStart(0))
	prev := ticks[0].Ts
	for i, t := range ticks {
		if t.Ts.Before(prev) {
			return nil, fmt.Errorf("%w: %s tick %d at %s precedes %s",
				ErrUnsortedTicks, instrument, i, t.Ts.Format(time.RFC3339Nano), prev.Format(time.RFC3339Nano))
		}
		prev = t.Ts

		idx := floorDiv(t.Ts.UnixMicro()-origin, width)
		for cur < idx {
			// 关闭当前窗口，中间没有成交的窗口直接补 0
			candles = append(candles, b.candle())
			cur++
			b.reset(windowStart(cur))
		}
		b.add(t)
	}
	candles = append(candles, b.candle())

	return &CandleSeries{Instrument: instrument, windowMs: windowMs, candles: candles}, nil
}

// AggregateObserver 接收每个品种的聚合结果（可对接 Prometheus）。
type AggregateObserver interface {
	ObserveCandles(instrument string, total, empty int)
}

// AggregateOptions AggregateAll 的可选参数。
type AggregateOptions struct {
	Workers  int
	Logger   *zap.Logger
	Observer AggregateObserver
}

// AggregateAll 并发聚合多个品种，各品种之间没有共享可变状态。
func AggregateAll(ticks map[string][]Tick, windowMs int64, opts AggregateOptions) (map[string]*CandleSeries, error) {
	if windowMs <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowMs)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	names := make([]string, 0, len(ticks))
	for name := range ticks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*CandleSeries, len(names))
	err := workpool.Run(len(names), opts.Workers, func(i int) error {
		series, err := Aggregate(names[i], ticks[names[i]], windowMs)
		if err != nil {
			return err
		}
		out[i] = series
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]*CandleSeries, len(names))
	for i, name := range names {
		s := out[i]
		result[name] = s
		empty := s.EmptyCount()
		if opts.Observer != nil {
			opts.Observer.ObserveCandles(name, s.Len(), empty)
		}
		log.Info("aggregation_done",
			zap.String("instrument", name),
			zap.Int("candles", s.Len()),
			zap.Int("empty_candles", empty),
			zap.Int64("window_ms", windowMs),
		)
	}
	return result, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
