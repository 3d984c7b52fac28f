package signal

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/quote"
)

// fixedModel always predicts the same probability.
type fixedModel struct{ p float64 }

func (m fixedModel) Predict(_ *model.Features) (float64, error) { return m.p, nil }

type failingSource struct{}

func (failingSource) GetBars(context.Context, string, int, int, time.Time) ([]model.OHLCV, error) {
	return nil, errors.New("connection refused")
}

func newTestEvaluator() *Evaluator {
	e := NewEvaluator(&quote.MockSource{BasePrice: 1.085})
	e.BarCount = 120
	return e
}

func TestEvaluateHighConfidenceUp(t *testing.T) {
	e := newTestEvaluator()
	ev, err := e.Evaluate(context.Background(), "frxEURUSD", fixedModel{p: 0.82}, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Direction != model.DirectionUp {
		t.Errorf("p=0.82 should be CALL, got %s", ev.Direction)
	}
	if math.Abs(ev.Confidence-82) > 1e-9 {
		t.Errorf("expected confidence 82, got %v", ev.Confidence)
	}
	if !ev.Tradeable {
		t.Error("confidence 82 should clear the 80 threshold")
	}
}

func TestEvaluateLowConfidenceNoTrade(t *testing.T) {
	e := newTestEvaluator()
	ev, err := e.Evaluate(context.Background(), "frxEURUSD", fixedModel{p: 0.55}, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(ev.Confidence-55) > 1e-9 {
		t.Errorf("expected confidence 55, got %v", ev.Confidence)
	}
	if ev.Tradeable {
		t.Error("confidence 55 must not be tradeable")
	}
}

func TestEvaluateDownDirection(t *testing.T) {
	e := newTestEvaluator()
	ev, err := e.Evaluate(context.Background(), "frxEURUSD", fixedModel{p: 0.15}, time.Now())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Direction != model.DirectionDown {
		t.Errorf("p=0.15 should be PUT, got %s", ev.Direction)
	}
	if math.Abs(ev.Confidence-85) > 1e-9 {
		t.Errorf("expected confidence 85, got %v", ev.Confidence)
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	e := newTestEvaluator()
	e.BarCount = 10
	_, err := e.Evaluate(context.Background(), "frxEURUSD", fixedModel{p: 0.9}, time.Now())
	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if len(ide.Missing) == 0 {
		t.Error("expected missing feature names")
	}
}

func TestEvaluateSourceError(t *testing.T) {
	e := NewEvaluator(failingSource{})
	if _, err := e.Evaluate(context.Background(), "frxEURUSD", fixedModel{p: 0.9}, time.Now()); err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestEvaluateBadProbability(t *testing.T) {
	e := newTestEvaluator()
	if _, err := e.Evaluate(context.Background(), "frxEURUSD", fixedModel{p: 1.5}, time.Now()); err == nil {
		t.Fatal("expected error for probability outside [0,1]")
	}
}
