package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"tick-backtest/infrastructure/logger"
	"tick-backtest/strategy"
	"tick-backtest/tickstore"
)

// 数据源类型。
const (
	SourceCSV        = "csv"
	SourceClickHouse = "clickhouse"
)

// AppConfig holds the backtest runtime configuration.
type AppConfig struct {
	Env        string          `yaml:"env"`
	WindowMs   int64           `yaml:"windowMs"`
	Workers    int             `yaml:"workers"`
	Data       DataConfig      `yaml:"data"`
	Strategies []strategy.Spec `yaml:"strategies"`
	Log        logger.Config   `yaml:"log"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	Output     OutputConfig    `yaml:"output"`
}

// DataConfig 描述成交数据从哪里加载。
type DataConfig struct {
	Source      string                     `yaml:"source"`
	CSV         CSVConfig                  `yaml:"csv"`
	ClickHouse  tickstore.ClickHouseConfig `yaml:"clickhouse"`
	Instruments []string                   `yaml:"instruments"`
}

type CSVConfig struct {
	Files map[string]string `yaml:"files"` // instrument -> 文件路径
	// timestamp 列单位（毫秒则填 1000），默认微秒
	TimeUnitUs int64 `yaml:"timeUnitUs"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 为空则不启动 /metrics
}

type OutputConfig struct {
	SummaryCSV string `yaml:"summaryCSV"`
}

// InstrumentList 返回要回测的品种（排序）。未显式配置时取 csv.files 的全部 key。
func (d DataConfig) InstrumentList() []string {
	var names []string
	if len(d.Instruments) > 0 {
		names = append(names, d.Instruments...)
	} else if d.Source == SourceCSV {
		for k := range d.CSV.Files {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Load reads YAML config from path, fills defaults and validates it.
func Load(path string) (AppConfig, error) {
	cfg, err := load(path)
	if err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

// load 解析文件并填充默认值，不做校验。
func load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadWithEnvOverrides loads config, overrides fields from env vars if present,
// then validates the merged result, so env may supply values the file omits.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("BT_CLICKHOUSE_DSN"); v != "" {
		cfg.Data.ClickHouse.DSN = v
	}
	if v := os.Getenv("BT_WINDOW_MS"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, ErrInvalid(fmt.Sprintf("BT_WINDOW_MS %q is not an integer", v))
		}
		cfg.WindowMs = ms
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	for i := range cfg.Strategies {
		if cfg.Strategies[i].Mode == 0 {
			cfg.Strategies[i].Mode = strategy.ModeClose
		}
	}
	def := logger.DefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Level
	}
	if len(cfg.Log.Outputs) == 0 {
		cfg.Log.Outputs = def.Outputs
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Format
	}
}
