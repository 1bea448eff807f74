package posttrade

import "math"

// Stats summarizes a per-step P&L series.
type Stats struct {
	PnL          float64
	MaxDrawdown  float64
	SharpeRatio  float64
	SortinoRatio float64 // +Inf when no step lost money
	Steps        int
}

// Analyzer accumulates per-step P&L into a dense series and tracks the
// drawdown of the cumulative P&L curve.
type Analyzer struct {
	series []float64
	pnl    float64
	peak   float64
	maxDD  float64
}

// NewAnalyzer creates an analyzer over a series of the given length. Steps
// never recorded stay at 0.
func NewAnalyzer(steps int) *Analyzer {
	if steps < 0 {
		steps = 0
	}
	return &Analyzer{series: make([]float64, steps)}
}

// Record stores the P&L of step t and updates the running peak and drawdown.
func (a *Analyzer) Record(t int, stepPnL float64) {
	if t >= 0 && t < len(a.series) {
		a.series[t] = stepPnL
	}
	a.pnl += stepPnL
	if a.pnl > a.peak {
		a.peak = a.pnl
	}
	if dd := a.peak - a.pnl; dd > a.maxDD {
		a.maxDD = dd
	}
}

// PnL is the cumulative P&L so far.
func (a *Analyzer) PnL() float64 { return a.pnl }

// MaxDrawdown is the largest peak-to-trough decline seen so far.
func (a *Analyzer) MaxDrawdown() float64 { return a.maxDD }

// Series returns a copy of the step P&L series.
func (a *Analyzer) Series() []float64 {
	out := make([]float64, len(a.series))
	copy(out, a.series)
	return out
}

// Stats computes the final statistics.
func (a *Analyzer) Stats() Stats {
	return Stats{
		PnL:          a.pnl,
		MaxDrawdown:  a.maxDD,
		SharpeRatio:  Sharpe(a.series),
		SortinoRatio: Sortino(a.series),
		Steps:        len(a.series),
	}
}

// Mean of xs, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	v := 0.0
	for _, x := range xs {
		d := x - m
		v += d * d
	}
	return math.Sqrt(v / float64(len(xs)))
}

// Sharpe is mean/stddev of the step series; 0 when the series is empty or
// has zero variance.
func Sharpe(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	sd := StdDev(pnls)
	if sd == 0 {
		return 0
	}
	return Mean(pnls) / sd
}

// Sortino is the mean of the whole step series divided by the standard
// deviation of its negative steps. It is +Inf when no step lost money, and 0
// for an empty series or a zero downside deviation.
func Sortino(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	downside := make([]float64, 0, len(pnls))
	for _, p := range pnls {
		if p < 0 {
			downside = append(downside, p)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}
	sd := StdDev(downside)
	if sd == 0 {
		return 0
	}
	return Mean(pnls) / sd
}
