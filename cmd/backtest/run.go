package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tick-backtest/config"
	"tick-backtest/infrastructure/logger"
	"tick-backtest/infrastructure/monitor"
	"tick-backtest/market"
	"tick-backtest/sim"
	"tick-backtest/tickstore"
)

func zapPath(p string) zap.Field { return zap.String("path", p) }

// execute 完成一次完整回测；outPath 为空时使用 output.summaryCSV。
func execute(ctx context.Context, cfg config.AppConfig, lg *logger.Logger, mon *monitor.Monitor, outPath string) error {
	loader, closeLoader, err := openLoader(ctx, cfg.Data)
	if err != nil {
		return err
	}
	defer closeLoader()

	runID := uuid.NewString()
	results, err := backtest(ctx, cfg, loader, lg, mon, runID)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = cfg.Output.SummaryCSV
	}
	if outPath == "" {
		return nil
	}
	if err := writeSummaryCSV(outPath, runID, results); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	lg.Info("summary_written", zapPath(outPath), zap.String("run_id", runID))
	return nil
}

// errWatcherStopped 监听器在没有收到退出信号时自行结束。
var errWatcherStopped = errors.New("config watcher stopped unexpectedly")

// watchExitCode 把 Watcher.Run 的返回值转成进程退出码；收到信号退出为 0，其余情况记错误。
func watchExitCode(runErr, ctxErr error, lg *logger.Logger, path string) int {
	if runErr == nil && ctxErr == nil {
		runErr = errWatcherStopped
	}
	if runErr == nil || errors.Is(runErr, context.Canceled) {
		return 0
	}
	lg.LogError(runErr, map[string]interface{}{"config": path})
	return 1
}

func openLoader(ctx context.Context, d config.DataConfig) (tickstore.Loader, func(), error) {
	switch d.Source {
	case config.SourceCSV:
		return tickstore.CSVLoader{
			Files:    d.CSV.Files,
			TimeUnit: time.Duration(d.CSV.TimeUnitUs) * time.Microsecond,
		}, func() {}, nil
	case config.SourceClickHouse:
		l, err := tickstore.OpenClickHouse(ctx, d.ClickHouse)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	}
	return nil, nil, config.ErrInvalid(fmt.Sprintf("unknown data.source %q", d.Source))
}

// backtest 加载成交、聚合K线并回放所有策略，结果按策略名排序。
func backtest(ctx context.Context, cfg config.AppConfig, loader tickstore.Loader, lg *logger.Logger, mon *monitor.Monitor, runID string) ([]sim.TradingStats, error) {
	start := time.Now()
	runLog := lg.WithFields(map[string]interface{}{"run_id": runID})
	instruments := cfg.Data.InstrumentList()
	lg.LogRun("run_started", runID, map[string]interface{}{
		"instruments": instruments,
		"strategies":  len(cfg.Strategies),
		"window_ms":   cfg.WindowMs,
	})

	ticks, err := tickstore.LoadAll(ctx, loader, instruments, cfg.Workers)
	if err != nil {
		return nil, err
	}
	candles, err := market.AggregateAll(ticks, cfg.WindowMs, market.AggregateOptions{
		Workers:  cfg.Workers,
		Logger:   runLog.Logger,
		Observer: mon,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	s, err := sim.Build(candles, sim.BuildConfig{
		Strategies: cfg.Strategies,
		Workers:    cfg.Workers,
		Logger:     runLog.Logger,
		Observer:   mon,
	})
	if err != nil {
		return nil, err
	}
	byName, err := s.Run()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]sim.TradingStats, 0, len(names))
	for _, name := range names {
		st := byName[name]
		runLog.LogStrategy("strategy_result", name, map[string]interface{}{
			"pnl":           st.PnL,
			"traded_volume": st.TradedVolume,
			"max_drawdown":  st.MaxDrawdown,
			"sharpe":        st.SharpeRatio,
			"sortino":       st.SortinoRatio,
			"flips":         st.TotalFlips(),
			"holding":       st.HoldingTimePercent,
		})
		out = append(out, st)
	}
	lg.LogRun("run_finished", runID, map[string]interface{}{
		"strategies":  len(out),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func writeSummaryCSV(path, runID string, stats []sim.TradingStats) error {
	if len(stats) == 0 {
		return fmt.Errorf("no summary data")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{"strategy", "pnl", "traded_volume", "max_drawdown", "sharpe", "sortino", "flips", "run_id"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range stats {
		record := []string{
			s.Strategy,
			fmt.Sprintf("%.6f", s.PnL),
			fmt.Sprintf("%.6f", s.TradedVolume),
			fmt.Sprintf("%.6f", s.MaxDrawdown),
			fmt.Sprintf("%.6f", s.SharpeRatio),
			fmt.Sprintf("%.6f", s.SortinoRatio),
			strconv.Itoa(s.TotalFlips()),
			runID,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
