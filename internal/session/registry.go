package session

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
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

// ValidationError reports invalid start parameters; the registry mutated
// nothing when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid session parameters: " + e.Reason }

var (
	ErrAlreadyRunning = errors.New("session already running")
	ErrNotRunning     = errors.New("session not running")
)

// Config carries the engine knobs shared by all sessions.
type Config struct {
	// Instruments maps display names to venue symbols.
	Instruments map[string]string
	Windows     []admission.Window

	// The trigger sub-window: the last minute of each PeriodMinutes
	// boundary, from TriggerSecond onward.
	PeriodMinutes  int
	TriggerSecond  int
	TickInterval   time.Duration
	PostCyclePause time.Duration

	PeriodSeconds       int
	BarCount            int
	ConfidenceThreshold float64

	HoldingDuration time.Duration
	SettlementGrace time.Duration

	PayoutRate    float64
	MaxMartingale int

	LogCapacity int
	MinStake    float64
}

func (c Config) withDefaults() Config {
	if c.Instruments == nil {
		c.Instruments = map[string]string{
			"EURUSD": "frxEURUSD",
			"EURJPY": "frxEURJPY",
			"USDJPY": "frxUSDJPY",
		}
	}
	if len(c.Windows) == 0 {
		c.Windows = admission.DefaultWindows()
	}
	if c.PeriodMinutes <= 0 {
		c.PeriodMinutes = 15
	}
	if c.TriggerSecond <= 0 {
		c.TriggerSecond = 25
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.PostCyclePause <= 0 {
		c.PostCyclePause = time.Minute
	}
	if c.PeriodSeconds <= 0 {
		c.PeriodSeconds = signal.DefaultPeriodSeconds
	}
	if c.BarCount <= 0 {
		c.BarCount = signal.DefaultBarCount
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = signal.DefaultConfidenceThreshold
	}
	if c.HoldingDuration <= 0 {
		c.HoldingDuration = execution.DefaultHoldingDuration
	}
	if c.SettlementGrace <= 0 {
		c.SettlementGrace = execution.DefaultSettlementGrace
	}
	if c.PayoutRate <= 0 {
		c.PayoutRate = money.DefaultPayoutRate
	}
	if c.MaxMartingale <= 0 {
		c.MaxMartingale = money.DefaultMaxMartingale
	}
	if c.LogCapacity <= 0 {
		c.LogCapacity = logbuf.DefaultCapacity
	}
	if c.MinStake <= 0 {
		c.MinStake = 0.5
	}
	return c
}

// Deps are the external collaborators shared by all sessions.
type Deps struct {
	Connector venue.Connector
	Models    signal.ModelProvider
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
}

// Registry owns all active sessions. Registration and lookup are
// synchronized here; each session's internal state stays single-writer
// under its own worker.
type Registry struct {
	cfg  Config
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a Registry. Nil notifier/recorder fall back to
// no-op implementations.
func NewRegistry(cfg Config, deps Deps) *Registry {
	if deps.Notifier == nil {
		deps.Notifier = notifier.Noop{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	return &Registry{
		cfg:      cfg.withDefaults(),
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Start validates the per-instrument parameters and spawns the session
// worker. On validation failure nothing is mutated. Starting a session
// that is already running returns ErrAlreadyRunning.
func (r *Registry) Start(userID string, creds model.Credentials, params map[string]model.InstrumentParams) error {
	if userID == "" {
		return &ValidationError{Reason: "user id required"}
	}
	if len(params) == 0 {
		return &ValidationError{Reason: "at least one instrument required"}
	}
	for name, p := range params {
		if _, ok := r.cfg.Instruments[name]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("unknown instrument %q", name)}
		}
		if p.InitialStake < r.cfg.MinStake {
			return &ValidationError{Reason: fmt.Sprintf("%s: stake %.2f below minimum %.2f", name, p.InitialStake, r.cfg.MinStake)}
		}
		if !isFinite(p.StopGain) || !isFinite(p.StopLoss) {
			return &ValidationError{Reason: fmt.Sprintf("%s: stop thresholds must be numeric", name)}
		}
		if p.StopLoss >= p.StopGain {
			return &ValidationError{Reason: fmt.Sprintf("%s: stop loss must be below stop gain", name)}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.sessions[userID]; existing != nil && existing.running.Load() {
		return ErrAlreadyRunning
	}

	sess := &Session{
		UserID:      userID,
		creds:       creds,
		log:         logbuf.New(r.cfg.LogCapacity),
		instruments: make(map[string]*model.InstrumentState, len(params)),
		stats:       make(map[string]*InstrumentSummary, len(params)),
	}
	for name, p := range params {
		sess.instruments[name] = model.NewInstrumentState(name, r.cfg.Instruments[name], p)
	}
	sess.worker = newWorker(sess, r.cfg, r.deps)
	sess.running.Store(true)
	r.sessions[userID] = sess

	sess.log.Append(model.LogInfo, "bot started")
	go sess.worker.run()
	return nil
}

// Stop requests a graceful stop; the worker samples it between cycles.
func (r *Registry) Stop(userID string) error {
	sess := r.lookup(userID)
	if sess == nil || !sess.running.Load() {
		return ErrNotRunning
	}
	sess.log.Append(model.LogWarn, "stop requested")
	sess.worker.requestStop()
	return nil
}

// IsRunning reports whether the user has a live session.
func (r *Registry) IsRunning(userID string) bool {
	sess := r.lookup(userID)
	return sess != nil && sess.running.Load()
}

// Logs returns a snapshot of the session log, oldest first. Unknown
// users get an empty slice.
func (r *Registry) Logs(userID string) []model.LogEntry {
	sess := r.lookup(userID)
	if sess == nil {
		return []model.LogEntry{}
	}
	return sess.log.Snapshot()
}

// Summaries returns the per-instrument standings for one user.
func (r *Registry) Summaries(userID string) []InstrumentSummary {
	sess := r.lookup(userID)
	if sess == nil {
		return nil
	}
	return sess.Summaries()
}

// RunningUsers lists users with a live session, sorted.
func (r *Registry) RunningUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []string
	for id, sess := range r.sessions {
		if sess.running.Load() {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users
}

// StopAll requests a stop of every running session and waits for the
// workers to finish. Used on shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	var workers []*worker
	for _, sess := range r.sessions {
		if sess.running.Load() {
			sess.worker.requestStop()
			workers = append(workers, sess.worker)
		}
	}
	r.mu.RUnlock()
	for _, w := range workers {
		<-w.Done()
	}
}

func (r *Registry) lookup(userID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
