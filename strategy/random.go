package strategy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"tick-backtest/market"
)

// RandomConfig 随机策略参数。
type RandomConfig struct {
	Name            string
	MaxQuantity     int64
	HoldProbability float64
	Seed            uint64
}

// MaxRandomQuantity MaxQuantity 的绝对值上限，保证 [-MaxQuantity, MaxQuantity] 的区间宽度不溢出 int64。
const MaxRandomQuantity = (math.MaxInt64 - 1) / 2

// DefaultRandomConfig 默认参数：单步最多 100 手，三分之一概率持有。
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{MaxQuantity: 100, HoldProbability: 0.33}
}

// NewRandom 生成随机买卖的策略：每一步对每个仍有 Candle 的品种，
// 以 HoldProbability 概率持有，否则在 [-MaxQuantity, MaxQuantity] 内均匀取数量。
func NewRandom(mode Mode, candles map[string]*market.CandleSeries, cfg RandomConfig) (Strategy, error) {
	if !mode.Valid() {
		return Strategy{}, ErrInvalidMode
	}
	if cfg.MaxQuantity > MaxRandomQuantity || cfg.MaxQuantity < -MaxRandomQuantity {
		return Strategy{}, fmt.Errorf("%w: maxQuantity %d out of range [-%d, %d]",
			market.ErrValidation, cfg.MaxQuantity, int64(MaxRandomQuantity), int64(MaxRandomQuantity))
	}
	def := DefaultRandomConfig()
	maxQty := abs(cfg.MaxQuantity)
	if maxQty == 0 {
		maxQty = def.MaxQuantity
	}
	holdP := cfg.HoldProbability
	if holdP < 0 || holdP > 1 {
		holdP = def.HoldProbability
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	name := cfg.Name
	if name == "" {
		name = "random-" + uuid.NewString()[:8]
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	names, maxLen := instruments(candles)
	actions := make([]ActionSet, maxLen)
	for t := 0; t < maxLen; t++ {
		set := make(ActionSet, len(names))
		for _, instr := range names {
			if t >= candles[instr].Len() {
				continue
			}
			if rng.Float64() < holdP {
				set[instr] = Hold()
				continue
			}
			set[instr] = Action{Quantity: rng.Int64N(2*maxQty+1) - maxQty}
		}
		actions[t] = set
	}
	return Strategy{Name: name, Mode: mode, Actions: actions}, nil
}
