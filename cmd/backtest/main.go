package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tick-backtest/config"
	"tick-backtest/infrastructure/logger"
	"tick-backtest/infrastructure/monitor"
	"tick-backtest/metrics"
)

// 配置驱动的回测：加载成交 -> 聚合K线 -> 回放策略 -> 写汇总 CSV。
// 用法：
//
//	go run ./cmd/backtest -config configs/backtest.yaml -out summaries.csv
//	go run ./cmd/backtest -config configs/backtest.yaml -watch
func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", "configs/backtest.yaml", "配置文件路径")
	outPath := flag.String("out", "", "汇总 CSV 路径（覆盖 output.summaryCSV）")
	watch := flag.Bool("watch", false, "配置文件变化后重新回测")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Printf("加载配置失败: %v", err)
		return 1
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Printf("初始化日志失败: %v", err)
		return 1
	}
	defer lg.Close()

	mon := monitor.New(monitor.DefaultConfig())
	if cfg.Metrics.Addr != "" {
		srv, _, err := metrics.StartMetricsServer(cfg.Metrics.Addr, mon.Handler(), lg.Logger)
		if err != nil {
			lg.LogError(err, map[string]interface{}{"addr": cfg.Metrics.Addr})
			return 1
		}
		defer srv.Shutdown(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cfg, lg, mon, *outPath); err != nil {
		lg.LogError(err, map[string]interface{}{"config": *cfgPath})
		if !*watch {
			return 1
		}
	}
	if !*watch {
		return 0
	}

	w, err := config.NewWatcher(*cfgPath, 0, lg.Logger)
	if err != nil {
		lg.LogError(err, map[string]interface{}{"config": *cfgPath})
		return 1
	}
	lg.Info("watching_config", zapPath(*cfgPath))
	err = w.Run(ctx, func(next config.AppConfig) {
		mon.Reset()
		if err := execute(ctx, next, lg, mon, *outPath); err != nil {
			lg.LogError(err, map[string]interface{}{"config": *cfgPath})
		}
	})
	return watchExitCode(err, ctx.Err(), lg, *cfgPath)
}
