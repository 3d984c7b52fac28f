// Package signal judges one instrument for a trade: recent bars in,
// direction and confidence out.
package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/indicator"
	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/quote"
)

// Model maps a feature vector to the probability that the price rises
// over the holding duration. Implementations must be deterministic for
// identical features.
type Model interface {
	Predict(f *model.Features) (float64, error)
}

// ModelProvider resolves the trained model for an instrument at session
// start. A false second value deterministically excludes the instrument
// from evaluation for the whole session.
type ModelProvider interface {
	ModelFor(instrument string) (Model, bool)
}

// Defaults for the evaluation window and the trade gate.
const (
	DefaultPeriodSeconds       = 900
	DefaultBarCount            = 500
	DefaultConfidenceThreshold = 80.0
)

// InsufficientDataError means the bar window could not produce the full
// feature vector; the instrument sits out this cycle.
type InsufficientDataError struct {
	Missing []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: missing features %v", e.Missing)
}

// Evaluation is the verdict for one instrument in one cycle.
type Evaluation struct {
	Direction   model.Direction
	Probability float64 // P(price increases)
	Confidence  float64 // percent distance from the 50% boundary
	Tradeable   bool
}

// Evaluator fetches bars, computes features and queries the model.
type Evaluator struct {
	Source              quote.Source
	PeriodSeconds       int
	BarCount            int
	ConfidenceThreshold float64
}

// NewEvaluator returns an Evaluator with defaults filled in.
func NewEvaluator(source quote.Source) *Evaluator {
	return &Evaluator{
		Source:              source,
		PeriodSeconds:       DefaultPeriodSeconds,
		BarCount:            DefaultBarCount,
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}
}

// Evaluate judges one instrument as of the given time.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string, m Model, asOf time.Time) (*Evaluation, error) {
	bars, err := e.Source.GetBars(ctx, symbol, e.PeriodSeconds, e.BarCount, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}

	features := indicator.Compute(bars)
	if missing := features.Missing(); len(missing) > 0 {
		return nil, &InsufficientDataError{Missing: missing}
	}

	p, err := m.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", symbol, err)
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("predict %s: probability %v out of [0,1]", symbol, p)
	}

	ev := &Evaluation{Probability: p}
	if p > 0.5 {
		ev.Direction = model.DirectionUp
		ev.Confidence = p * 100
	} else {
		ev.Direction = model.DirectionDown
		ev.Confidence = (1 - p) * 100
	}
	ev.Tradeable = ev.Confidence >= e.ConfidenceThreshold
	return ev, nil
}
