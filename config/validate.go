package config

import (
	"fmt"

	"tick-backtest/strategy"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate ensures required fields are present and consistent.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	if cfg.WindowMs <= 0 {
		return ErrInvalid("windowMs must be > 0")
	}
	if cfg.Workers < 0 {
		return ErrInvalid("workers must be >= 0")
	}
	if err := validateData(cfg.Data); err != nil {
		return err
	}
	if len(cfg.Strategies) == 0 {
		return ErrInvalid("at least one strategy is required")
	}
	seen := make(map[string]bool, len(cfg.Strategies))
	for i, sp := range cfg.Strategies {
		if err := validateStrategy(i, sp); err != nil {
			return err
		}
		if sp.Name == "" {
			continue
		}
		if seen[sp.Name] {
			return ErrInvalid(fmt.Sprintf("strategies[%d] duplicate name %q", i, sp.Name))
		}
		seen[sp.Name] = true
	}
	return nil
}

func validateData(d DataConfig) error {
	switch d.Source {
	case SourceCSV:
		if len(d.CSV.Files) == 0 {
			return ErrInvalid("data.csv.files is required for csv source")
		}
		for instr, path := range d.CSV.Files {
			if path == "" {
				return ErrInvalid(fmt.Sprintf("data.csv.files[%s] path is empty", instr))
			}
		}
		for _, instr := range d.Instruments {
			if _, ok := d.CSV.Files[instr]; !ok {
				return ErrInvalid(fmt.Sprintf("instrument %s has no csv file", instr))
			}
		}
		if d.CSV.TimeUnitUs < 0 {
			return ErrInvalid("data.csv.timeUnitUs must be >= 0")
		}
	case SourceClickHouse:
		if d.ClickHouse.DSN == "" || d.ClickHouse.Database == "" || d.ClickHouse.Table == "" {
			return ErrInvalid("data.clickhouse.dsn/database/table is required (or BT_CLICKHOUSE_DSN)")
		}
		if len(d.Instruments) == 0 {
			return ErrInvalid("data.instruments is required for clickhouse source")
		}
	default:
		return ErrInvalid(fmt.Sprintf("unknown data.source %q", d.Source))
	}
	return nil
}

func validateStrategy(i int, sp strategy.Spec) error {
	if !sp.Mode.Valid() {
		return ErrInvalid(fmt.Sprintf("strategies[%d] invalid mode %s", i, sp.Mode))
	}
	switch sp.Kind {
	case strategy.KindRandom:
		if sp.MaxQuantity < 0 || sp.MaxQuantity > strategy.MaxRandomQuantity {
			return ErrInvalid(fmt.Sprintf("strategies[%d] maxQuantity must be within [0,%d]", i, int64(strategy.MaxRandomQuantity)))
		}
		if sp.HoldProbability < 0 || sp.HoldProbability > 1 {
			return ErrInvalid(fmt.Sprintf("strategies[%d] holdProbability must be within [0,1]", i))
		}
	case strategy.KindForesight:
		if sp.Quantity < 0 {
			return ErrInvalid(fmt.Sprintf("strategies[%d] quantity must be >= 0", i))
		}
	default:
		return ErrInvalid(fmt.Sprintf("strategies[%d] unknown kind %q", i, sp.Kind))
	}
	return nil
}
