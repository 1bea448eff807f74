package logger

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"run_started": {
		Event:    "run_started",
		Required: []string{"run_id", "instruments", "strategies", "window_ms"},
	},
	"run_finished": {
		Event:    "run_finished",
		Required: []string{"run_id", "strategies", "duration_ms"},
	},
	"strategy_result": {
		Event:    "strategy_result",
		Required: []string{"strategy", "pnl", "traded_volume", "max_drawdown", "sharpe", "sortino", "flips"},
	},
}

// KnownEvents 返回所有带 schema 的事件名，便于外部生成文档。
func KnownEvents() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ValidateFields 检查日志字段是否包含 schema 中要求的 key，未登记的事件直接通过。
func ValidateFields(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("event %s missing fields: %s", event, strings.Join(missing, ","))
	}
	return nil
}
