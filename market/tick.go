package market

import (
	"fmt"
	"strings"
	"time"
)

// Side 成交方向。
type Side uint8

const (
	SideBuy Side = iota + 1
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSide 解析 buy/sell（大小写不敏感）。
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "buy", "b", "bid":
		return SideBuy, nil
	case "sell", "s", "ask":
		return SideSell, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSide, v)
}

// Tick 单笔成交。
type Tick struct {
	Ts    time.Time
	Price float64
	Size  float64
	Side  Side
}
