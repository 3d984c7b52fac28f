// Package money implements the bounded martingale stake-recovery policy
// applied to an instrument's state when a trade settles.
package money

import "github.com/viicttorhugo/invest-botnuvem/internal/model"

// Defaults for the recovery policy.
const (
	DefaultPayoutRate    = 0.9
	DefaultMaxMartingale = 6
)

// Machine applies settlement outcomes to per-instrument state. It is
// stateless beyond its two policy knobs; all mutated fields live on the
// InstrumentState it is handed.
type Machine struct {
	PayoutRate    float64
	MaxMartingale int
}

// New returns a Machine with the given policy, falling back to defaults
// for zero values.
func New(payoutRate float64, maxMartingale int) Machine {
	if payoutRate <= 0 {
		payoutRate = DefaultPayoutRate
	}
	if maxMartingale <= 0 {
		maxMartingale = DefaultMaxMartingale
	}
	return Machine{PayoutRate: payoutRate, MaxMartingale: maxMartingale}
}

// Result describes what a settlement did to the instrument state.
type Result struct {
	PnLDelta float64
	// Reset is true when the stake ladder returned to the initial stake,
	// either from a win or from abandoning the ladder.
	Reset bool
	// Abandoned is true when the reset came from exceeding the maximum
	// number of consecutive doublings rather than from a win.
	Abandoned bool
}

// Settle applies one settlement outcome for the stake that was traded.
// Outcomes other than won (lost, unknown, still open) all take the loss
// path: the stake is written off and the ladder advances or resets.
func (m Machine) Settle(st *model.InstrumentState, stake float64, outcome model.Outcome) Result {
	if outcome == model.OutcomeWon {
		delta := stake * m.PayoutRate
		st.AccumulatedPnL += delta
		st.CurrentStake = st.InitialStake
		st.MartingaleLevel = 0
		return Result{PnLDelta: delta, Reset: true}
	}

	st.AccumulatedPnL -= stake
	if st.MartingaleLevel < m.MaxMartingale {
		st.CurrentStake *= 2
		st.MartingaleLevel++
		return Result{PnLDelta: -stake}
	}
	st.CurrentStake = st.InitialStake
	st.MartingaleLevel = 0
	return Result{PnLDelta: -stake, Reset: true, Abandoned: true}
}
