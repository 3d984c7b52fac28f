// Package execution drives the placement/settlement handshake for one
// trade attempt: exactly one placement and one settlement poll per cycle.
package execution

import (
	"context"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue"
)

// Defaults for contract timing.
const (
	DefaultHoldingDuration = 15 * time.Minute
	DefaultSettlementGrace = 30 * time.Second
)

// Coordinator executes attempts against a venue.
type Coordinator struct {
	Venue           venue.Venue
	HoldingDuration time.Duration
	SettlementGrace time.Duration

	// OnPlaced, when set, is called once the venue has accepted the
	// placement, before the holding wait begins.
	OnPlaced func(attempt *model.TradeAttempt)
}

// NewCoordinator returns a Coordinator with defaults filled in.
func NewCoordinator(v venue.Venue) *Coordinator {
	return &Coordinator{
		Venue:           v,
		HoldingDuration: DefaultHoldingDuration,
		SettlementGrace: DefaultSettlementGrace,
	}
}

// Budget is the wall-clock bound for one attempt: the holding duration
// plus grace for the placement and settlement round-trips.
func (c *Coordinator) Budget() time.Duration {
	return c.HoldingDuration + c.SettlementGrace
}

// Execute places the attempt, waits out the holding duration and polls
// the venue once. The attempt's Outcome is always set on return:
// rejected placements come back OutcomeRejected with the rejection error;
// settlement statuses outside won/lost come back OutcomeUnknown, which
// money management treats as a loss. A non-nil error alongside a usable
// outcome is informational only.
func (c *Coordinator) Execute(ctx context.Context, attempt *model.TradeAttempt, venueSymbol string) error {
	attempt.Outcome = model.OutcomePending
	attempt.PlacedAt = time.Now()

	contractID, err := c.Venue.PlaceTrade(ctx, venueSymbol, attempt.Stake, attempt.Direction, c.HoldingDuration)
	if err != nil {
		attempt.Outcome = model.OutcomeRejected
		return err
	}
	attempt.ContractID = contractID
	if c.OnPlaced != nil {
		c.OnPlaced(attempt)
	}

	// The contract runs to expiry regardless of any pending stop request;
	// stops are sampled between cycles, never here.
	hold := time.NewTimer(c.HoldingDuration)
	defer hold.Stop()
	select {
	case <-hold.C:
	case <-ctx.Done():
		attempt.Outcome = model.OutcomeUnknown
		return ctx.Err()
	}

	outcome, err := c.Venue.PollSettlement(ctx, attempt.ContractID)
	if err != nil {
		attempt.Outcome = model.OutcomeUnknown
		return err
	}
	attempt.Outcome = outcome
	return nil
}
