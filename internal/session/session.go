// Package session is the orchestration core: a registry of per-user
// trading sessions, each driven by its own worker through admission
// gating, concurrent instrument evaluation, execution and stake-recovery
// accounting.
package session

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/viicttorhugo/invest-botnuvem/internal/logbuf"
	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// Session is one user's trading state. The instrument map is created
// before the worker starts and mutated only by that worker afterwards;
// everything other goroutines may read goes through the log buffer or
// the summary copies.
type Session struct {
	UserID string

	creds       model.Credentials
	log         *logbuf.Buffer
	instruments map[string]*model.InstrumentState
	running     atomic.Bool
	worker      *worker

	statsMu sync.Mutex
	stats   map[string]*InstrumentSummary
}

// InstrumentSummary is a read-safe copy of one instrument's standing,
// refreshed by the worker after every settlement.
type InstrumentSummary struct {
	Instrument      string
	AccumulatedPnL  float64
	CurrentStake    float64
	MartingaleLevel int
	Halted          bool
	Wins            int
	Losses          int
}

func (s *Session) updateSummary(st *model.InstrumentState, outcome model.Outcome) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	sum := s.stats[st.Instrument]
	if sum == nil {
		sum = &InstrumentSummary{Instrument: st.Instrument}
		s.stats[st.Instrument] = sum
	}
	sum.AccumulatedPnL = st.AccumulatedPnL
	sum.CurrentStake = st.CurrentStake
	sum.MartingaleLevel = st.MartingaleLevel
	sum.Halted = st.Halted
	switch outcome {
	case model.OutcomeWon:
		sum.Wins++
	case model.OutcomeLost, model.OutcomeUnknown:
		sum.Losses++
	}
}

// Summaries returns the per-instrument standings sorted by name.
func (s *Session) Summaries() []InstrumentSummary {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	out := make([]InstrumentSummary, 0, len(s.stats))
	for _, sum := range s.stats {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}
