// Package quote defines the price-bar source consumed by the signal
// evaluator, plus a synthetic source for tests and paper trading.
package quote

import (
	"context"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// Source fetches recent price bars for an instrument.
type Source interface {
	// GetBars returns up to count bars of periodSeconds granularity
	// ending at asOf, oldest first.
	GetBars(ctx context.Context, symbol string, periodSeconds, count int, asOf time.Time) ([]model.OHLCV, error)
}
