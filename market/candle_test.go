package market

import (
	"testing"
	"time"
)

func TestCandleSeriesReadOnly(t *testing.T) {
	src := []Candle{{Close: 1, Trades: 1}, {Close: 2, Trades: 1}}
	s := NewCandleSeries("x", 1000, src)
	src[0].Close = 99

	c, err := s.At(0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Close != 1 {
		t.Fatalf("series must not alias caller slice, got %v", c.Close)
	}

	cp := s.Candles()
	cp[1].Close = 42
	if c, _ := s.At(1); c.Close != 2 {
		t.Fatalf("Candles() must return a copy, got %v", c.Close)
	}
	if s.Window() != time.Second || s.WindowMs() != 1000 {
		t.Fatalf("unexpected window %v", s.Window())
	}
}

func TestCandleSeriesAtOutOfRange(t *testing.T) {
	s := NewCandleSeries("x", 1000, []Candle{{}})
	for _, i := range []int{-1, 1, 5} {
		if _, err := s.At(i); err == nil {
			t.Fatalf("expected error for index %d", i)
		}
	}
	if s.Has(1) || !s.Has(0) {
		t.Fatalf("Has mismatch")
	}
	var nilSeries *CandleSeries
	if nilSeries.Len() != 0 {
		t.Fatalf("nil series should have zero length")
	}
}

func TestParseSide(t *testing.T) {
	cases := map[string]Side{"buy": SideBuy, "BUY": SideBuy, " sell ": SideSell, "s": SideSell}
	for in, want := range cases {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Fatalf("ParseSide(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Fatalf("expected error for unknown side")
	}
	if SideBuy.String() != "buy" || SideSell.String() != "sell" {
		t.Fatalf("unexpected side strings")
	}
}
