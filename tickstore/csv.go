package tickstore

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"tick-backtest/market"
)

// CSVLoader reads trades from one CSV file per instrument. The header must
// name a timestamp column (local_timestamp or timestamp), a price column, a
// size column (amount, size or qty) and a side column. UTF-16 files with a
// BOM are decoded transparently.
type CSVLoader struct {
	Files map[string]string
	// TimeUnit of the timestamp column, microseconds when zero.
	TimeUnit time.Duration
}

func (l CSVLoader) Instruments() []string {
	names := make([]string, 0, len(l.Files))
	for k := range l.Files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (l CSVLoader) LoadTrades(ctx context.Context, instrument string) ([]market.Tick, error) {
	path, ok := l.Files[instrument]
	if !ok {
		return nil, fmt.Errorf("no csv file configured for %q", instrument)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ticks, err := ReadCSV(ctx, f, l.TimeUnit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ticks, nil
}

type columns struct {
	ts, price, size, side int
}

func findColumns(header []string) (columns, error) {
	c := columns{ts: -1, price: -1, size: -1, side: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "local_timestamp":
			c.ts = i
		case "timestamp", "timestamp_us", "ts":
			if c.ts < 0 {
				c.ts = i
			}
		case "price":
			c.price = i
		case "amount", "size", "qty", "quantity":
			c.size = i
		case "side":
			c.side = i
		}
	}
	if c.ts < 0 || c.price < 0 || c.size < 0 || c.side < 0 {
		return c, fmt.Errorf("csv header %v: need timestamp, price, amount and side columns", header)
	}
	return c, nil
}

// ReadCSV parses trade rows from r and returns them ordered by timestamp.
func ReadCSV(ctx context.Context, r io.Reader, unit time.Duration) ([]market.Tick, error) {
	if unit <= 0 {
		unit = time.Microsecond
	}
	br := bufio.NewReader(r)
	// UTF-16 exports from spreadsheet tools carry a BOM
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		br = bufio.NewReader(transform.NewReader(br, dec))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := findColumns(header)
	if err != nil {
		return nil, err
	}
	need := max(cols.ts, cols.price, cols.size, cols.side) + 1

	var ticks []market.Tick
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < need {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, need, len(rec))
		}
		t, err := parseRow(rec, cols, unit)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ticks = append(ticks, t)
	}
	sortTicks(ticks)
	return ticks, nil
}

func parseRow(rec []string, cols columns, unit time.Duration) (market.Tick, error) {
	raw, err := strconv.ParseInt(strings.TrimSpace(rec[cols.ts]), 10, 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("timestamp: %w", err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(rec[cols.price]), 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("price: %w", err)
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(rec[cols.size]), 64)
	if err != nil {
		return market.Tick{}, fmt.Errorf("amount: %w", err)
	}
	side, err := market.ParseSide(rec[cols.side])
	if err != nil {
		return market.Tick{}, err
	}
	return market.Tick{
		Ts:    time.Unix(0, 0).Add(time.Duration(raw) * unit).UTC(),
		Price: price,
		Size:  size,
		Side:  side,
	}, nil
}
