package sim

import (
	"fmt"

	"tick-backtest/market"
)

var (
	ErrNoCandles         = fmt.Errorf("%w: candle series must be provided", market.ErrConfiguration)
	ErrUnknownInstrument = fmt.Errorf("%w: instrument not in simulator candles", market.ErrValidation)
)
