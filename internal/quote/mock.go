package quote

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// MockSource returns deterministic synthetic bars. Fixed per-symbol data
// takes precedence; otherwise a gentle sine-drift series is generated
// around BasePrice so indicators stay computable.
type MockSource struct {
	BasePrice float64

	mu    sync.Mutex
	fixed map[string][]model.OHLCV
	calls int
}

// SetBars pins the bars returned for one symbol.
func (m *MockSource) SetBars(symbol string, bars []model.OHLCV) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fixed == nil {
		m.fixed = make(map[string][]model.OHLCV)
	}
	m.fixed[symbol] = bars
}

func (m *MockSource) GetBars(_ context.Context, symbol string, periodSeconds, count int, asOf time.Time) ([]model.OHLCV, error) {
	m.mu.Lock()
	fixed := m.fixed[symbol]
	m.calls++
	shift := m.calls
	m.mu.Unlock()

	if fixed != nil {
		return fixed, nil
	}

	base := m.BasePrice
	if base == 0 {
		base = 1.0
	}
	period := time.Duration(periodSeconds) * time.Second
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := base * (1 + 0.002*math.Sin(float64(i+shift)/9) + float64(i)*0.00001)
		bars[i] = model.OHLCV{
			Time:   asOf.Add(-time.Duration(count-i) * period),
			Open:   p * 0.9995,
			High:   p * 1.0008,
			Low:    p * 0.9992,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars, nil
}
