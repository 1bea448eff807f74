package inventory

// Tracker 按品种维护方向性仓位（多/空/空仓）并统计方向翻转次数。
// 只在单个模拟内部使用，不做并发保护。
type Tracker struct {
	dir   map[string]int
	flips map[string]int
}

func NewTracker() *Tracker {
	return &Tracker{dir: make(map[string]int), flips: make(map[string]int)}
}

// Update 根据成交数量调整方向：从非多头买入记为翻多，从非空头卖出记为翻空。
// 返回本次是否发生翻转；qty 为 0 时不做任何处理。
func (t *Tracker) Update(instrument string, qty int64) bool {
	cur := t.dir[instrument]
	switch {
	case qty > 0 && cur <= 0:
		t.dir[instrument] = 1
	case qty < 0 && cur >= 0:
		t.dir[instrument] = -1
	default:
		return false
	}
	t.flips[instrument]++
	return true
}

// Touch 登记品种，使其在 Flips 结果中出现（翻转次数为 0）。
func (t *Tracker) Touch(instrument string) {
	if _, ok := t.flips[instrument]; !ok {
		t.flips[instrument] = 0
	}
}

// Direction 当前方向：1 多头，-1 空头，0 空仓。
func (t *Tracker) Direction(instrument string) int { return t.dir[instrument] }

// FlipCount 单个品种的翻转次数。
func (t *Tracker) FlipCount(instrument string) int { return t.flips[instrument] }

// Flips 返回所有登记品种翻转次数的副本。
func (t *Tracker) Flips() map[string]int {
	out := make(map[string]int, len(t.flips))
	for k, v := range t.flips {
		out[k] = v
	}
	return out
}
