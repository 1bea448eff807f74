package market

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func tick(offset time.Duration, price, size float64, side Side) Tick {
	return Tick{Ts: t0.Add(offset), Price: price, Size: size, Side: side}
}

func TestAggregateSingleWindow(t *testing.T) {
	ticks := []Tick{
		tick(0, 100, 1, SideBuy),
		tick(10*time.Second, 102, 3, SideSell),
		tick(20*time.Second, 99, 1, SideBuy),
	}
	s, err := Aggregate("ethusdt", ticks, 60_000)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	c, err := s.At(0)
	require.NoError(t, err)
	assert.Equal(t, t0, c.Start)
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 102.0, c.High)
	assert.Equal(t, 99.0, c.Low)
	assert.Equal(t, 99.0, c.Close)
	assert.InDelta(t, 99.5, c.AvgBuyPrice, 1e-12)
	assert.InDelta(t, 102.0, c.AvgSellPrice, 1e-12)
	assert.Equal(t, 2.0, c.BuyVolume)
	assert.Equal(t, 3.0, c.SellVolume)
	assert.Equal(t, 3, c.Trades)
}

func TestAggregateSizeWeightedAverage(t *testing.T) {
	ticks := []Tick{
		tick(0, 100, 1, SideBuy),
		tick(time.Second, 110, 3, SideBuy),
	}
	s, err := Aggregate("x", ticks, 1000*60)
	require.NoError(t, err)
	c, _ := s.At(0)
	assert.InDelta(t, 107.5, c.AvgBuyPrice, 1e-12)
	assert.Equal(t, 0.0, c.AvgSellPrice)
	assert.Equal(t, 0.0, c.SellVolume)
}

func TestAggregateFillsEmptyWindowsWithZero(t *testing.T) {
	ticks := []Tick{
		tick(5*time.Second, 10, 1, SideBuy),
		tick(150*time.Second, 12, 2, SideSell),
	}
	s, err := Aggregate("x", ticks, 60_000)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	empty, _ := s.At(1)
	assert.True(t, empty.Empty())
	assert.Equal(t, t0.Add(time.Minute), empty.Start)
	for _, v := range []float64{empty.Open, empty.High, empty.Low, empty.Close,
		empty.AvgBuyPrice, empty.AvgSellPrice, empty.BuyVolume, empty.SellVolume} {
		assert.Equal(t, 0.0, v)
	}

	last, _ := s.At(2)
	assert.Equal(t, 12.0, last.Close)
	assert.Equal(t, 12.0, last.AvgSellPrice)
	assert.Equal(t, 0.0, last.AvgBuyPrice)
	assert.Equal(t, 1, s.EmptyCount())
}

func TestAggregateAlignsToWindowBoundary(t *testing.T) {
	ticks := []Tick{
		tick(90*time.Second, 1, 1, SideBuy),
		tick(121*time.Second, 2, 1, SideBuy),
	}
	s, err := Aggregate("x", ticks, 60_000)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	first, _ := s.At(0)
	second, _ := s.At(1)
	assert.Equal(t, t0.Add(time.Minute), first.Start)
	assert.Equal(t, t0.Add(2*time.Minute), second.Start)
}

func TestAggregateErrors(t *testing.T) {
	_, err := Aggregate("x", []Tick{tick(0, 1, 1, SideBuy)}, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = Aggregate("x", []Tick{tick(0, 1, 1, SideBuy)}, -5)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Aggregate("x", nil, 1000)
	assert.ErrorIs(t, err, ErrNoTicks)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = Aggregate("x", []Tick{
		tick(0, 1, 1, SideBuy),
		tick(3*time.Second, 1, 1, SideBuy),
		tick(2*time.Second, 1, 1, SideBuy),
	}, 1000)
	assert.ErrorIs(t, err, ErrUnsortedTicks)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestAggregateRandomTicks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, windowMs := range []int64{1, 250, 1000, 7_000, 60_000} {
		var ticks []Tick
		ts := t0
		price := 100.0
		for i := 0; i < 500; i++ {
			ts = ts.Add(time.Duration(rng.Intn(4000)) * time.Millisecond)
			price += rng.Float64() - 0.5
			side := SideBuy
			if rng.Intn(2) == 0 {
				side = SideSell
			}
			ticks = append(ticks, Tick{Ts: ts, Price: price, Size: rng.Float64() * 10, Side: side})
		}

		s, err := Aggregate("x", ticks, windowMs)
		require.NoError(t, err)

		first := ticks[0].Ts.UnixMilli() / windowMs
		last := ticks[len(ticks)-1].Ts.UnixMilli() / windowMs
		require.Equal(t, int(last-first+1), s.Len(), "window %d", windowMs)

		trades := 0
		for i, c := range s.Candles() {
			trades += c.Trades
			assert.GreaterOrEqual(t, c.BuyVolume, 0.0)
			assert.GreaterOrEqual(t, c.SellVolume, 0.0)
			if i > 0 {
				prev, _ := s.At(i - 1)
				assert.Equal(t, s.Window(), c.Start.Sub(prev.Start))
			}
			if c.Empty() {
				assert.Equal(t, Candle{Start: c.Start}, c)
				continue
			}
			assert.LessOrEqual(t, c.Low, min(c.Open, c.Close))
			assert.LessOrEqual(t, max(c.Open, c.Close), c.High)
			if c.BuyVolume == 0 {
				assert.Equal(t, 0.0, c.AvgBuyPrice)
			} else {
				assert.True(t, c.AvgBuyPrice >= c.Low-1e-9 && c.AvgBuyPrice <= c.High+1e-9)
			}
			if c.SellVolume == 0 {
				assert.Equal(t, 0.0, c.AvgSellPrice)
			}
		}
		assert.Equal(t, len(ticks), trades)
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	total map[string]int
	empty map[string]int
}

func (r *recordingObserver) ObserveCandles(instrument string, total, empty int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total[instrument] = total
	r.empty[instrument] = empty
}

func TestAggregateAll(t *testing.T) {
	obs := &recordingObserver{total: map[string]int{}, empty: map[string]int{}}
	in := map[string][]Tick{
		"pepeusdt": {tick(0, 1, 1, SideBuy), tick(3*time.Second, 2, 1, SideSell)},
		"dogeusdt": {tick(0, 5, 1, SideSell)},
	}
	out, err := AggregateAll(in, 1000, AggregateOptions{Workers: 2, Observer: obs})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 4, out["pepeusdt"].Len())
	assert.Equal(t, 1, out["dogeusdt"].Len())
	assert.Equal(t, "pepeusdt", out["pepeusdt"].Instrument)
	assert.Equal(t, 4, obs.total["pepeusdt"])
	assert.Equal(t, 2, obs.empty["pepeusdt"])
	assert.Equal(t, 0, obs.empty["dogeusdt"])
}

func TestAggregateAllPropagatesErrors(t *testing.T) {
	in := map[string][]Tick{
		"ok":    {tick(0, 1, 1, SideBuy)},
		"empty": nil,
	}
	_, err := AggregateAll(in, 1000, AggregateOptions{})
	assert.ErrorIs(t, err, ErrNoTicks)

	_, err = AggregateAll(in, 0, AggregateOptions{})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
