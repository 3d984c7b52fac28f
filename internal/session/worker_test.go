package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/admission"
	"github.com/viicttorhugo/invest-botnuvem/internal/execution"
	"github.com/viicttorhugo/invest-botnuvem/internal/logbuf"
	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/money"
	"github.com/viicttorhugo/invest-botnuvem/internal/notifier"
	"github.com/viicttorhugo/invest-botnuvem/internal/recorder"
	"github.com/viicttorhugo/invest-botnuvem/internal/signal"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue"
)

// stubVenue serves canned bars and a scripted settlement.
type stubVenue struct {
	mu       sync.Mutex
	bars     []model.OHLCV
	placeErr error
	outcome  model.Outcome
	pollErr  error
	placed   int
	polled   int
}

func (v *stubVenue) GetBars(_ context.Context, _ string, _, _ int, _ time.Time) ([]model.OHLCV, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bars, nil
}

func (v *stubVenue) PlaceTrade(_ context.Context, _ string, _ float64, _ model.Direction, _ time.Duration) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.placeErr != nil {
		return "", v.placeErr
	}
	v.placed++
	return "contract-1", nil
}

func (v *stubVenue) PollSettlement(context.Context, string) (model.Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.polled++
	return v.outcome, v.pollErr
}

func (v *stubVenue) Close() error { return nil }

func (v *stubVenue) placedCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placed
}

type stubConnector struct {
	v   venue.Venue
	err error
}

func (c *stubConnector) Connect(context.Context, model.Credentials) (venue.Venue, error) {
	return c.v, c.err
}

// fixedModel always predicts the same probability.
type fixedModel struct{ p float64 }

func (m fixedModel) Predict(*model.Features) (float64, error) { return m.p, nil }

type fixedProvider struct{ m signal.Model }

func (p fixedProvider) ModelFor(string) (signal.Model, bool) { return p.m, true }

// emptyProvider knows no models, so cycles never spawn tasks.
type emptyProvider struct{}

func (emptyProvider) ModelFor(string) (signal.Model, bool) { return nil, false }

type captureRecorder struct {
	mu     sync.Mutex
	trades []recorder.TradeRecord
}

func (r *captureRecorder) RecordTrade(rec *recorder.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, *rec)
	return nil
}

func (r *captureRecorder) RecordSummary(*recorder.SummaryRecord) error { return nil }

func (r *captureRecorder) Close() error { return nil }

func (r *captureRecorder) all() []recorder.TradeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorder.TradeRecord(nil), r.trades...)
}

func mustWindows(t *testing.T, specs ...string) []admission.Window {
	t.Helper()
	windows, err := admission.ParseWindows(specs)
	if err != nil {
		t.Fatalf("parse windows: %v", err)
	}
	return windows
}

func featureBars() []model.OHLCV {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 1.08 + 0.0004*float64(i%7) + 0.0001*float64(i)
	}
	bars := make([]model.OHLCV, len(closes))
	base := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:  base.Add(time.Duration(i) * 15 * time.Minute),
			Open:  c - 0.0002,
			High:  c + 0.0006,
			Low:   c - 0.0006,
			Close: c,
		}
	}
	return bars
}

type cycleFixture struct {
	sess  *Session
	w     *worker
	venue *stubVenue
	rec   *captureRecorder
	eval  *signal.Evaluator
	coord *execution.Coordinator
	mm    money.Machine
}

func newCycleFixture(t *testing.T, p model.InstrumentParams, v *stubVenue) *cycleFixture {
	t.Helper()
	if v.bars == nil {
		v.bars = featureBars()
	}
	sess := &Session{
		UserID:      "u1",
		log:         logbuf.New(100),
		instruments: map[string]*model.InstrumentState{"EURUSD": model.NewInstrumentState("EURUSD", "frxEURUSD", p)},
		stats:       map[string]*InstrumentSummary{},
	}
	rec := &captureRecorder{}
	cfg := Config{Instruments: map[string]string{"EURUSD": "frxEURUSD"}}.withDefaults()
	w := newWorker(sess, cfg, Deps{
		Connector: &stubConnector{v: v},
		Models:    fixedProvider{},
		Notifier:  notifier.Noop{},
		Recorder:  rec,
	})
	return &cycleFixture{
		sess:  sess,
		w:     w,
		venue: v,
		rec:   rec,
		eval: &signal.Evaluator{
			Source:              v,
			PeriodSeconds:       900,
			BarCount:            120,
			ConfidenceThreshold: 80,
		},
		coord: &execution.Coordinator{
			Venue:           v,
			HoldingDuration: time.Millisecond,
			SettlementGrace: 100 * time.Millisecond,
		},
		mm: money.New(0.9, 6),
	}
}

func (f *cycleFixture) runOnce(t *testing.T, m signal.Model) {
	t.Helper()
	now := time.Date(2024, 3, 11, 9, 14, 30, 0, time.UTC)
	f.w.runCycle(now, map[string]signal.Model{"EURUSD": m}, f.eval, f.coord, f.mm)
}

func logContains(entries []model.LogEntry, substr string) bool {
	for _, e := range entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestCycleWinResetsStake(t *testing.T) {
	v := &stubVenue{outcome: model.OutcomeWon}
	f := newCycleFixture(t, model.InstrumentParams{InitialStake: 2, StopGain: 50, StopLoss: -50}, v)

	f.runOnce(t, fixedModel{p: 0.9})

	st := f.sess.instruments["EURUSD"]
	if st.AccumulatedPnL != 1.8 {
		t.Errorf("expected PnL 1.8, got %v", st.AccumulatedPnL)
	}
	if st.CurrentStake != 2 || st.MartingaleLevel != 0 {
		t.Errorf("win should reset stake: stake %v level %d", st.CurrentStake, st.MartingaleLevel)
	}
	if !logContains(f.sess.log.Snapshot(), "GAIN") {
		t.Error("expected a GAIN log entry")
	}
	trades := f.rec.all()
	if len(trades) != 1 || trades[0].Outcome != model.OutcomeWon || trades[0].PnLDelta != 1.8 {
		t.Errorf("unexpected trade records: %+v", trades)
	}
}

func TestCycleLossDoublesStake(t *testing.T) {
	v := &stubVenue{outcome: model.OutcomeLost}
	f := newCycleFixture(t, model.InstrumentParams{InitialStake: 2, StopGain: 50, StopLoss: -50}, v)

	f.runOnce(t, fixedModel{p: 0.9})

	st := f.sess.instruments["EURUSD"]
	if st.CurrentStake != 4 || st.MartingaleLevel != 1 {
		t.Errorf("loss should double stake: stake %v level %d", st.CurrentStake, st.MartingaleLevel)
	}
	if st.AccumulatedPnL != -2 {
		t.Errorf("expected PnL -2, got %v", st.AccumulatedPnL)
	}
	if !logContains(f.sess.log.Snapshot(), "LOSS") {
		t.Error("expected a LOSS log entry")
	}
}

func TestCycleAmbiguousSettlementCountsAsLoss(t *testing.T) {
	v := &stubVenue{outcome: model.OutcomeUnknown}
	f := newCycleFixture(t, model.InstrumentParams{InitialStake: 2, StopGain: 50, StopLoss: -50}, v)

	f.runOnce(t, fixedModel{p: 0.9})

	st := f.sess.instruments["EURUSD"]
	if st.CurrentStake != 4 || st.AccumulatedPnL != -2 {
		t.Errorf("unknown settlement should apply the loss path: stake %v pnl %v", st.CurrentStake, st.AccumulatedPnL)
	}
	trades := f.rec.all()
	if len(trades) != 1 || trades[0].Outcome != model.OutcomeUnknown {
		t.Errorf("unknown outcome should be recorded as such: %+v", trades)
	}
}

func TestCycleRejectionLeavesStateUntouched(t *testing.T) {
	v := &stubVenue{placeErr: &venue.RejectionError{Reason: "insufficient balance"}}
	f := newCycleFixture(t, model.InstrumentParams{InitialStake: 2, StopGain: 50, StopLoss: -50}, v)

	f.runOnce(t, fixedModel{p: 0.9})

	st := f.sess.instruments["EURUSD"]
	if st.CurrentStake != 2 || st.MartingaleLevel != 0 || st.AccumulatedPnL != 0 {
		t.Errorf("rejection must not mutate state: %+v", st)
	}
	if !logContains(f.sess.log.Snapshot(), "rejected") {
		t.Error("expected a rejection log entry")
	}
	trades := f.rec.all()
	if len(trades) != 1 || trades[0].Outcome != model.OutcomeRejected {
		t.Errorf("expected one rejected record, got %+v", trades)
	}
}

func TestCycleBelowConfidenceSkipsTrade(t *testing.T) {
	v := &stubVenue{outcome: model.OutcomeWon}
	f := newCycleFixture(t, model.InstrumentParams{InitialStake: 2, StopGain: 50, StopLoss: -50}, v)

	f.runOnce(t, fixedModel{p: 0.6})

	if v.placedCount() != 0 {
		t.Errorf("confidence 60%% must not trade, placed %d", v.placedCount())
	}
	if len(f.rec.all()) != 0 {
		t.Errorf("no records expected, got %+v", f.rec.all())
	}
}

func TestCycleHaltLatchesOnStopGain(t *testing.T) {
	v := &stubVenue{outcome: model.OutcomeWon}
	f := newCycleFixture(t, model.InstrumentParams{InitialStake: 2, StopGain: 10, StopLoss: -50}, v)
	f.sess.instruments["EURUSD"].AccumulatedPnL = 10

	f.runOnce(t, fixedModel{p: 0.9})

	st := f.sess.instruments["EURUSD"]
	if !st.Halted {
		t.Error("expected instrument halted at stop gain")
	}
	if v.placedCount() != 0 {
		t.Errorf("halted instrument must not trade, placed %d", v.placedCount())
	}
	if !logContains(f.sess.log.Snapshot(), "stop threshold") {
		t.Error("expected a halt log entry")
	}

	// Halt is latched: a second cycle does not re-log or trade.
	before := f.sess.log.Len()
	f.runOnce(t, fixedModel{p: 0.9})
	if f.sess.log.Len() != before {
		t.Error("latched halt should stay silent on later cycles")
	}
}

func TestShouldTrigger(t *testing.T) {
	cfg := Config{
		Windows:       mustWindows(t, "08:00-10:00"),
		PeriodMinutes: 15,
		TriggerSecond: 25,
	}.withDefaults()
	w := &worker{cfg: cfg}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"closing minute past trigger second", time.Date(2024, 3, 11, 9, 14, 25, 0, time.UTC), true},
		{"closing minute end of window", time.Date(2024, 3, 11, 9, 59, 59, 0, time.UTC), true},
		{"closing minute before trigger second", time.Date(2024, 3, 11, 9, 14, 24, 0, time.UTC), false},
		{"mid-period minute", time.Date(2024, 3, 11, 9, 7, 30, 0, time.UTC), false},
		{"outside window", time.Date(2024, 3, 11, 12, 14, 30, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.shouldTrigger(tc.at); got != tc.want {
				t.Errorf("shouldTrigger(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}
