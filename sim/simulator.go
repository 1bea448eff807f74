package sim

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"tick-backtest/internal/workpool"
	"tick-backtest/inventory"
	"tick-backtest/market"
	"tick-backtest/posttrade"
	"tick-backtest/strategy"
)

// Observer 接收每个策略的回放结果（可对接 Prometheus）。
type Observer interface {
	ObserveSimulation(strategy string, stats TradingStats, elapsed time.Duration)
	ObserveSimulationError(strategy string, err error)
}

// Config 模拟器可选参数。
type Config struct {
	Workers  int // Run 并发回放的策略数，<=0 时取 GOMAXPROCS
	Logger   *zap.Logger
	Observer Observer
}

// Simulator 在只读的 Candle 序列上回放已注册的策略。
type Simulator struct {
	candles map[string]*market.CandleSeries
	maxLen  int
	cfg     Config
	log     *zap.Logger

	mu         sync.RWMutex
	strategies map[string]strategy.Strategy
}

// New 创建模拟器；candles 为空时返回 ErrNoCandles。
func New(candles map[string]*market.CandleSeries, cfg Config) (*Simulator, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	own := make(map[string]*market.CandleSeries, len(candles))
	maxLen := 0
	for instr, s := range candles {
		if s == nil {
			return nil, fmt.Errorf("%w: nil series for %q", ErrNoCandles, instr)
		}
		own[instr] = s
		if s.Len() > maxLen {
			maxLen = s.Len()
		}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		candles:    own,
		maxLen:     maxLen,
		cfg:        cfg,
		log:        log,
		strategies: make(map[string]strategy.Strategy),
	}, nil
}

// AddStrategy 注册策略，按名称去重：同名策略已存在时保留原策略，不报错。
// 模式非法时直接返回错误，不修改注册表。
func (s *Simulator) AddStrategy(st strategy.Strategy) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strategies[st.Name]; ok {
		s.log.Debug("strategy_duplicate_ignored", zap.String("strategy", st.Name))
		return nil
	}
	s.strategies[st.Name] = st.Clone()
	s.log.Debug("strategy_added",
		zap.String("strategy", st.Name),
		zap.Stringer("mode", st.Mode),
		zap.Int("steps", st.Len()),
	)
	return nil
}

// DeleteStrategy 删除策略，不存在时不做任何事。
func (s *Simulator) DeleteStrategy(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strategies[name]; ok {
		delete(s.strategies, name)
		s.log.Debug("strategy_deleted", zap.String("strategy", name))
	}
}

// Strategy 返回已注册策略的副本。
func (s *Simulator) Strategy(name string) (strategy.Strategy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.strategies[name]
	if !ok {
		return strategy.Strategy{}, false
	}
	return st.Clone(), true
}

// Strategies 已注册策略名（排序后）。
func (s *Simulator) Strategies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run 回放所有已注册策略，结果按策略名索引。
// 各策略只读共享的 Candle 序列、写各自的局部状态，可并发执行。
func (s *Simulator) Run() (map[string]TradingStats, error) {
	s.mu.RLock()
	list := make([]strategy.Strategy, 0, len(s.strategies))
	for _, st := range s.strategies {
		list = append(list, st)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	results := make([]TradingStats, len(list))
	err := workpool.Run(len(list), s.cfg.Workers, func(i int) error {
		st := list[i]
		start := time.Now()
		stats, err := s.Simulate(st)
		if err != nil {
			if s.cfg.Observer != nil {
				s.cfg.Observer.ObserveSimulationError(st.Name, err)
			}
			return fmt.Errorf("simulate %q: %w", st.Name, err)
		}
		elapsed := time.Since(start)
		if s.cfg.Observer != nil {
			s.cfg.Observer.ObserveSimulation(st.Name, stats, elapsed)
		}
		s.log.Info("simulation_done",
			zap.String("strategy", st.Name),
			zap.Float64("pnl", stats.PnL),
			zap.Float64("traded_volume", stats.TradedVolume),
			zap.Float64("max_drawdown", stats.MaxDrawdown),
			zap.Float64("sharpe", stats.SharpeRatio),
			zap.Float64("sortino", stats.SortinoRatio),
			zap.Duration("elapsed", elapsed),
		)
		results[i] = stats
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]TradingStats, len(results))
	for _, r := range results {
		out[r.Strategy] = r
	}
	return out, nil
}

// Simulate 回放单个策略。
//
// 回放长度 T = min(最长序列长度, 动作序列长度)，t 取 0..T-2：Actions[t] 以下标 t 的价格成交，
// 以 t+1 的价格估值。品种序列没有 t+1 时跳过该动作；动作引用未知品种时返回 ErrUnknownInstrument。
func (s *Simulator) Simulate(st strategy.Strategy) (TradingStats, error) {
	if err := st.Validate(); err != nil {
		return TradingStats{}, err
	}

	horizon := min(s.maxLen, st.Len())
	analyzer := posttrade.NewAnalyzer(horizon)
	positions := inventory.NewTracker()
	holds := make(map[string]int)
	volume := 0.0

	var instruments []string
	for t := 0; t < horizon-1; t++ {
		actions := st.Actions[t]
		instruments = sortedKeys(actions, instruments[:0])

		stepPnL := 0.0
		for _, instr := range instruments {
			a := actions[instr]
			series, ok := s.candles[instr]
			if !ok {
				return TradingStats{}, fmt.Errorf("strategy %q step %d: %w: %q", st.Name, t, ErrUnknownInstrument, instr)
			}
			if !series.Has(t + 1) {
				continue
			}
			positions.Touch(instr)
			if a.IsHold() {
				holds[instr]++
				continue
			}

			entry, err := s.Price(instr, st.Mode, a.Quantity, t)
			if err != nil {
				return TradingStats{}, err
			}
			// 下一根 Candle 的价格视为最新成交价
			exit, err := s.Price(instr, st.Mode, a.Quantity, t+1)
			if err != nil {
				return TradingStats{}, err
			}
			stepPnL += (exit - entry) * float64(a.Quantity)
			volume += math.Abs(float64(a.Quantity))
			positions.Update(instr, a.Quantity)
		}
		analyzer.Record(t, stepPnL)
	}

	flips := positions.Flips()
	holding := make(map[string]float64, len(flips))
	for instr := range flips {
		// 最后一步没有 t+1 可估值，不计入可交易步数，全持有时恰为 1
		steps := min(s.candles[instr].Len(), st.Len()) - 1
		if steps > 0 {
			holding[instr] = float64(holds[instr]) / float64(steps)
		} else {
			holding[instr] = 0
		}
	}

	res := analyzer.Stats()
	return TradingStats{
		Strategy:           st.Name,
		PnL:                res.PnL,
		TradedVolume:       volume,
		MaxDrawdown:        res.MaxDrawdown,
		HoldingTimePercent: holding,
		PositionFlips:      flips,
		SharpeRatio:        res.SharpeRatio,
		SortinoRatio:       res.SortinoRatio,
		Steps:              res.Steps,
	}, nil
}

// Price 按定价模式取品种在下标 t 的成交价：
// close 取收盘价；average 买入取买方均价、卖出取卖方均价、持有为 0。
func (s *Simulator) Price(instrument string, mode strategy.Mode, quantity int64, t int) (float64, error) {
	series, ok := s.candles[instrument]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInstrument, instrument)
	}
	if !mode.Valid() {
		return 0, fmt.Errorf("%w %s", strategy.ErrInvalidMode, mode)
	}
	c, err := series.At(t)
	if err != nil {
		return 0, err
	}
	if mode == strategy.ModeClose {
		return c.Close, nil
	}
	switch {
	case quantity > 0:
		return c.AvgBuyPrice, nil
	case quantity < 0:
		return c.AvgSellPrice, nil
	}
	return 0, nil
}

func sortedKeys(set strategy.ActionSet, buf []string) []string {
	for k := range set {
		buf = append(buf, k)
	}
	sort.Strings(buf)
	return buf
}
