package tickstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"tick-backtest/market"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseConfig locates the trades table.
type ClickHouseConfig struct {
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// ClickHouseLoader reads trades from a table with columns
// (symbol, timestamp, price, amount, side).
type ClickHouseLoader struct {
	conn     driver.Conn
	database string
	table    string
}

// OpenClickHouse dials ClickHouse and verifies the connection.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseLoader, error) {
	opts, err := clickhouse.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	l, err := NewClickHouseLoader(conn, cfg.Database, cfg.Table)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return l, nil
}

// NewClickHouseLoader wraps an open connection.
func NewClickHouseLoader(conn driver.Conn, database, table string) (*ClickHouseLoader, error) {
	if !identRe.MatchString(database) || !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table %q.%q", database, table)
	}
	return &ClickHouseLoader{conn: conn, database: database, table: table}, nil
}

func (l *ClickHouseLoader) LoadTrades(ctx context.Context, instrument string) ([]market.Tick, error) {
	q := fmt.Sprintf("SELECT timestamp, price, amount, side FROM %s.%s WHERE symbol = ? ORDER BY timestamp", l.database, l.table)
	rows, err := l.conn.Query(ctx, q, instrument)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var ticks []market.Tick
	for rows.Next() {
		var (
			ts     time.Time
			price  float64
			amount float64
			side   string
		)
		if err := rows.Scan(&ts, &price, &amount, &side); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		s, err := market.ParseSide(side)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, market.Tick{Ts: ts.UTC(), Price: price, Size: amount, Side: s})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	sortTicks(ticks)
	return ticks, nil
}

func (l *ClickHouseLoader) Close() error { return l.conn.Close() }
