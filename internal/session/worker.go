package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/admission"
	"github.com/viicttorhugo/invest-botnuvem/internal/execution"
	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/money"
	"github.com/viicttorhugo/invest-botnuvem/internal/recorder"
	"github.com/viicttorhugo/invest-botnuvem/internal/signal"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue"
)

// Worker states. A stop request moves RUNNING to STOPPING; the worker
// itself moves to STOPPED when the loop exits.
const (
	stateRunning int32 = iota
	stateStopping
	stateStopped
)

type worker struct {
	sess  *Session
	cfg   Config
	deps  Deps
	state atomic.Int32
	done  chan struct{}
	now   func() time.Time
}

func newWorker(sess *Session, cfg Config, deps Deps) *worker {
	w := &worker{
		sess: sess,
		cfg:  cfg,
		deps: deps,
		done: make(chan struct{}),
		now:  time.Now,
	}
	w.state.Store(stateRunning)
	return w
}

// requestStop is sampled by the worker only between cycles; an in-flight
// cycle always runs to settlement.
func (w *worker) requestStop() {
	w.state.CompareAndSwap(stateRunning, stateStopping)
}

// Done is closed once the worker has fully stopped.
func (w *worker) Done() <-chan struct{} { return w.done }

func (w *worker) running() bool { return w.state.Load() == stateRunning }

// run is the session control loop: connect, resolve models, then tick
// until stopped. Any panic is a fatal worker error: logged, session
// stopped, restart left to the host.
func (w *worker) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] worker %s: fatal: %v", w.sess.UserID, r)
			w.sess.log.Append(model.LogWarn, "worker fatal error: %v", r)
		}
		w.state.Store(stateStopped)
		w.sess.running.Store(false)
		w.sess.log.Append(model.LogInfo, "worker finished")
		close(w.done)
	}()

	w.sess.log.Append(model.LogInfo, "connecting to venue...")
	v, err := w.deps.Connector.Connect(context.Background(), w.sess.creds)
	if err != nil {
		log.Printf("[ERROR] worker %s: venue connect: %v", w.sess.UserID, err)
		w.sess.log.Append(model.LogWarn, "venue connection failed: %v", err)
		return
	}
	defer v.Close()

	// Resolve models once; instruments without one sit the session out.
	models := make(map[string]signal.Model)
	for name := range w.sess.instruments {
		if m, ok := w.deps.Models.ModelFor(name); ok {
			models[name] = m
		} else {
			w.sess.log.Append(model.LogWarn, "%s - no trained model, excluded from evaluation", name)
		}
	}
	w.sess.log.Append(model.LogInfo, "models ready for %d instrument(s)", len(models))
	w.deps.Notifier.Send("✅ Bot activated")

	evaluator := &signal.Evaluator{
		Source:              v,
		PeriodSeconds:       w.cfg.PeriodSeconds,
		BarCount:            w.cfg.BarCount,
		ConfidenceThreshold: w.cfg.ConfidenceThreshold,
	}
	coord := &execution.Coordinator{
		Venue:           v,
		HoldingDuration: w.cfg.HoldingDuration,
		SettlementGrace: w.cfg.SettlementGrace,
		OnPlaced: func(attempt *model.TradeAttempt) {
			w.deps.Notifier.Send(fmt.Sprintf(
				"📢 *Signal: %s*\n- Direction: `%s`\n- Stake: `$%.2f`\n- Confidence: `%.1f%%`",
				attempt.Instrument, attempt.Direction, attempt.Stake, attempt.Confidence))
		},
	}
	mm := money.New(w.cfg.PayoutRate, w.cfg.MaxMartingale)

	for w.running() {
		now := w.now()
		if w.shouldTrigger(now) {
			w.runCycle(now, models, evaluator, coord, mm)
			time.Sleep(w.cfg.PostCyclePause)
		} else {
			time.Sleep(w.cfg.TickInterval)
		}
	}
}

// shouldTrigger reports whether now falls in the trigger sub-window: the
// closing minute of the evaluation period, past the trigger second,
// inside an admission window. That places every evaluation just before
// the period boundary, on the freshest bars.
func (w *worker) shouldTrigger(now time.Time) bool {
	if now.Minute()%w.cfg.PeriodMinutes != w.cfg.PeriodMinutes-1 {
		return false
	}
	if now.Second() < w.cfg.TriggerSecond {
		return false
	}
	return admission.TimeAllowed(w.cfg.Windows, now)
}

type cycleResult struct {
	instrument string
	attempt    *model.TradeAttempt
	err        error
}

// runCycle evaluates every eligible instrument concurrently, joins all
// tasks (each bounded by the holding duration plus grace), then applies
// the settlement outcomes. State mutation happens only here, in the
// worker goroutine, after the join.
func (w *worker) runCycle(now time.Time, models map[string]signal.Model, evaluator *signal.Evaluator, coord *execution.Coordinator, mm money.Machine) {
	names := make([]string, 0, len(w.sess.instruments))
	for name := range w.sess.instruments {
		names = append(names, name)
	}
	sort.Strings(names)

	type job struct {
		st *model.InstrumentState
		m  signal.Model
	}
	var jobs []job
	for _, name := range names {
		st := w.sess.instruments[name]
		m, ok := models[name]
		if !ok {
			continue
		}
		if !admission.RiskAllowed(st) {
			if !st.Halted {
				st.Halted = true
				w.sess.log.Append(model.LogWarn, "%s - stop threshold reached, no further trades", name)
				w.sess.updateSummary(st, model.OutcomePending)
			}
			continue
		}
		jobs = append(jobs, job{st: st, m: m})
	}
	if len(jobs) == 0 {
		return
	}

	results := make(chan cycleResult, len(jobs))
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(st *model.InstrumentState, m signal.Model) {
			defer wg.Done()
			res := cycleResult{instrument: st.Instrument}
			defer func() {
				if r := recover(); r != nil {
					res.err = fmt.Errorf("task panic: %v", r)
				}
				results <- res
			}()
			res = w.evaluateAndExecute(st, m, now, evaluator, coord)
		}(j.st, j.m)
	}
	wg.Wait()
	close(results)

	for res := range results {
		w.applyResult(res, mm)
	}
}

// evaluateAndExecute is one instrument's task for one cycle. It never
// touches instrument state; mutations wait for the worker's join.
func (w *worker) evaluateAndExecute(st *model.InstrumentState, m signal.Model, now time.Time, evaluator *signal.Evaluator, coord *execution.Coordinator) cycleResult {
	res := cycleResult{instrument: st.Instrument}

	ctx, cancel := context.WithTimeout(context.Background(), coord.Budget())
	defer cancel()

	ev, err := evaluator.Evaluate(ctx, st.VenueSymbol, m, now)
	if err != nil {
		var ide *signal.InsufficientDataError
		if errors.As(err, &ide) {
			w.sess.log.Append(model.LogWarn, "%s - indicators not computable, skipping", st.Instrument)
			return res
		}
		w.sess.log.Append(model.LogWarn, "%s - evaluation failed: %v", st.Instrument, err)
		res.err = err
		return res
	}

	w.sess.log.Append(model.LogInfo, "%s - confidence %.1f%% direction %s", st.Instrument, ev.Confidence, ev.Direction)
	if !ev.Tradeable {
		return res
	}

	attempt := &model.TradeAttempt{
		ID:         model.NewAttemptID(),
		Instrument: st.Instrument,
		Direction:  ev.Direction,
		Stake:      st.CurrentStake,
		Confidence: ev.Confidence,
	}
	res.attempt = attempt
	w.sess.log.Append(model.LogInfo, "%s - sending signal, stake $%.2f", st.Instrument, attempt.Stake)

	if err := coord.Execute(ctx, attempt, st.VenueSymbol); err != nil {
		if venue.IsRejection(err) {
			w.sess.log.Append(model.LogWarn, "%s - placement rejected: %v", st.Instrument, err)
			w.deps.Notifier.Send(fmt.Sprintf("⚠️ Rejected %s: %v", st.Instrument, err))
		} else {
			w.sess.log.Append(model.LogWarn, "%s - execution error: %v", st.Instrument, err)
		}
		res.err = err
	}
	return res
}

// applyResult applies money management for one settled attempt and
// persists the record. Rejected attempts change no state.
func (w *worker) applyResult(res cycleResult, mm money.Machine) {
	attempt := res.attempt
	if attempt == nil {
		return
	}
	st := w.sess.instruments[res.instrument]

	if !attempt.Outcome.Settled() && attempt.Outcome != model.OutcomeUnknown {
		w.record(attempt, 0, st.MartingaleLevel)
		return
	}

	placedLevel := st.MartingaleLevel
	out := mm.Settle(st, attempt.Stake, attempt.Outcome)
	if attempt.Outcome == model.OutcomeWon {
		w.sess.log.Append(model.LogGain, "%s - GAIN +$%.2f", st.Instrument, out.PnLDelta)
		w.deps.Notifier.Send(fmt.Sprintf("✅ *Result: GAIN (%s)* +$%.2f", st.Instrument, out.PnLDelta))
	} else {
		tag := "LOSS"
		if attempt.Outcome == model.OutcomeUnknown {
			tag = "LOSS (unsettled)"
		}
		w.sess.log.Append(model.LogLoss, "%s - %s -$%.2f", st.Instrument, tag, attempt.Stake)
		w.deps.Notifier.Send(fmt.Sprintf("❌ *Result: LOSS (%s)* -$%.2f", st.Instrument, attempt.Stake))
		if out.Abandoned {
			w.sess.log.Append(model.LogWarn, "%s - recovery ladder abandoned, stake reset", st.Instrument)
		}
	}

	if !st.Halted && !admission.RiskAllowed(st) {
		st.Halted = true
		w.sess.log.Append(model.LogWarn, "%s - stop threshold reached, no further trades", st.Instrument)
	}
	w.sess.updateSummary(st, attempt.Outcome)
	w.record(attempt, out.PnLDelta, placedLevel)
}

func (w *worker) record(attempt *model.TradeAttempt, delta float64, placedLevel int) {
	rec := &recorder.TradeRecord{
		AttemptID:       attempt.ID,
		UserID:          w.sess.UserID,
		Instrument:      attempt.Instrument,
		ContractID:      attempt.ContractID,
		Direction:       attempt.Direction,
		Stake:           attempt.Stake,
		Confidence:      attempt.Confidence,
		Outcome:         attempt.Outcome,
		PnLDelta:        delta,
		MartingaleLevel: placedLevel,
		PlacedAt:        attempt.PlacedAt,
	}
	if err := w.deps.Recorder.RecordTrade(rec); err != nil {
		log.Printf("[ERROR] record trade %s: %v", attempt.ID, err)
	}
}
