package market

import (
	"errors"
	"fmt"
)

// 错误类别，具体错误通过 %w 包装其中之一，便于 errors.Is 判断。
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrStructural    = errors.New("structural error")
)

var (
	ErrInvalidWindow   = fmt.Errorf("%w: window must be > 0", ErrConfiguration)
	ErrNoTicks         = fmt.Errorf("%w: no ticks to aggregate", ErrConfiguration)
	ErrUnsortedTicks   = fmt.Errorf("%w: ticks not sorted by timestamp", ErrStructural)
	ErrIndexOutOfRange = fmt.Errorf("%w: candle index out of range", ErrStructural)
	ErrInvalidSide     = fmt.Errorf("%w: invalid trade side", ErrValidation)
)
