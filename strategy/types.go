package strategy

import (
	"fmt"
	"strings"

	"tick-backtest/market"
)

// ErrInvalidMode 不支持的定价模式。
var ErrInvalidMode = fmt.Errorf("%w: unsupported mode", market.ErrValidation)

// Mode 交易动作的定价方式。
type Mode uint8

const (
	// ModeClose 以 Candle 收盘价成交。
	ModeClose Mode = iota + 1
	// ModeAverage 买入用买方均价、卖出用卖方均价。
	ModeAverage
)

// ValidModes 支持的定价模式。
func ValidModes() []Mode { return []Mode{ModeClose, ModeAverage} }

// Valid 是否为支持的模式。
func (m Mode) Valid() bool { return m == ModeClose || m == ModeAverage }

func (m Mode) String() string {
	switch m {
	case ModeClose:
		return "close"
	case ModeAverage:
		return "average"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode 解析 close/average。
func ParseMode(v string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "close":
		return ModeClose, nil
	case "average", "avg":
		return ModeAverage, nil
	}
	return 0, fmt.Errorf("%w %q, supported modes are %v", ErrInvalidMode, v, ValidModes())
}

// UnmarshalText 支持 yaml/json 直接解码。
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText 与 UnmarshalText 对应。
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w %s", ErrInvalidMode, m)
	}
	return []byte(m.String()), nil
}

// Action 单个品种在某一步的交易动作：正数买入，负数卖出，0 为持有。
type Action struct {
	Quantity int64
}

func Buy(qty int64) Action  { return Action{Quantity: abs(qty)} }
func Sell(qty int64) Action { return Action{Quantity: -abs(qty)} }
func Hold() Action          { return Action{} }

// IsHold 是否为持有动作。
func (a Action) IsHold() bool { return a.Quantity == 0 }

// Direction 返回 1/-1/0。
func (a Action) Direction() int {
	switch {
	case a.Quantity > 0:
		return 1
	case a.Quantity < 0:
		return -1
	}
	return 0
}

// ActionSet 同一时间步内按品种组织的动作，未出现的品种本步不处理。
type ActionSet map[string]Action

// Strategy 一组按时间步排列的动作。Actions[t] 以下标 t 的 Candle 成交、以 t+1 的 Candle 估值。
type Strategy struct {
	Name    string
	Mode    Mode
	Actions []ActionSet
}

// Validate 只校验结构约束，不关心动作如何生成。
func (s Strategy) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("strategy %q: %w %s, supported modes are %v", s.Name, ErrInvalidMode, s.Mode, ValidModes())
	}
	return nil
}

// Len 动作序列长度。
func (s Strategy) Len() int { return len(s.Actions) }

// Clone 深拷贝，注册到模拟器后调用方的修改不会影响已注册的策略。
func (s Strategy) Clone() Strategy {
	out := Strategy{Name: s.Name, Mode: s.Mode}
	if s.Actions != nil {
		out.Actions = make([]ActionSet, len(s.Actions))
		for t, set := range s.Actions {
			if set == nil {
				continue
			}
			cp := make(ActionSet, len(set))
			for instr, a := range set {
				cp[instr] = a
			}
			out.Actions[t] = cp
		}
	}
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
