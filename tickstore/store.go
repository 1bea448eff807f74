// Package tickstore loads ordered trade ticks per instrument from external
// storage (CSV files, ClickHouse, or memory).
package tickstore

import (
	"context"
	"fmt"
	"sort"

	"tick-backtest/internal/workpool"
	"tick-backtest/market"
)

// Loader returns the time-ordered trades of one instrument.
type Loader interface {
	LoadTrades(ctx context.Context, instrument string) ([]market.Tick, error)
}

// Instrumenter is implemented by loaders that know their own instrument set.
type Instrumenter interface {
	Instruments() []string
}

// Memory is an in-memory Loader, mostly for tests and fixtures.
type Memory map[string][]market.Tick

func (m Memory) LoadTrades(_ context.Context, instrument string) ([]market.Tick, error) {
	ticks, ok := m[instrument]
	if !ok {
		return nil, fmt.Errorf("no trades for instrument %q", instrument)
	}
	out := make([]market.Tick, len(ticks))
	copy(out, ticks)
	return out, nil
}

func (m Memory) Instruments() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadAll loads every instrument concurrently with at most workers loads in
// flight. The first error aborts the result.
func LoadAll(ctx context.Context, l Loader, instruments []string, workers int) (map[string][]market.Tick, error) {
	out := make([][]market.Tick, len(instruments))
	err := workpool.Run(len(instruments), workers, func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ticks, err := l.LoadTrades(ctx, instruments[i])
		if err != nil {
			return fmt.Errorf("load %s: %w", instruments[i], err)
		}
		out[i] = ticks
		return nil
	})
	if err != nil {
		return nil, err
	}
	res := make(map[string][]market.Tick, len(instruments))
	for i, name := range instruments {
		res[name] = out[i]
	}
	return res, nil
}

// sortTicks stable-sorts ticks by timestamp when they are not already ordered.
func sortTicks(ticks []market.Tick) {
	less := func(i, j int) bool { return ticks[i].Ts.Before(ticks[j].Ts) }
	if !sort.SliceIsSorted(ticks, less) {
		sort.SliceStable(ticks, less)
	}
}
