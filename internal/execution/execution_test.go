package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue"
)

// scriptedVenue implements venue.Venue with canned responses.
type scriptedVenue struct {
	placeErr   error
	contractID string
	outcome    model.Outcome
	pollErr    error

	placed int
	polled int
}

func (v *scriptedVenue) GetBars(context.Context, string, int, int, time.Time) ([]model.OHLCV, error) {
	return nil, nil
}

func (v *scriptedVenue) PlaceTrade(context.Context, string, float64, model.Direction, time.Duration) (string, error) {
	v.placed++
	if v.placeErr != nil {
		return "", v.placeErr
	}
	return v.contractID, nil
}

func (v *scriptedVenue) PollSettlement(context.Context, string) (model.Outcome, error) {
	v.polled++
	if v.pollErr != nil {
		return model.OutcomeUnknown, v.pollErr
	}
	return v.outcome, nil
}

func (v *scriptedVenue) Close() error { return nil }

func newAttempt() *model.TradeAttempt {
	return &model.TradeAttempt{
		ID:         model.NewAttemptID(),
		Instrument: "EURUSD",
		Direction:  model.DirectionUp,
		Stake:      2.0,
		Confidence: 84,
	}
}

func fastCoordinator(v venue.Venue) *Coordinator {
	return &Coordinator{Venue: v, HoldingDuration: 5 * time.Millisecond, SettlementGrace: 50 * time.Millisecond}
}

func TestExecuteWin(t *testing.T) {
	v := &scriptedVenue{contractID: "c-1", outcome: model.OutcomeWon}
	c := fastCoordinator(v)
	attempt := newAttempt()
	if err := c.Execute(context.Background(), attempt, "frxEURUSD"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if attempt.Outcome != model.OutcomeWon {
		t.Errorf("expected won, got %s", attempt.Outcome)
	}
	if attempt.ContractID != "c-1" {
		t.Errorf("expected contract handle recorded, got %q", attempt.ContractID)
	}
	if v.placed != 1 || v.polled != 1 {
		t.Errorf("expected exactly one placement and one poll, got %d/%d", v.placed, v.polled)
	}
}

func TestExecuteRejectionLeavesNoContract(t *testing.T) {
	v := &scriptedVenue{placeErr: &venue.RejectionError{Reason: "insufficient funds"}}
	c := fastCoordinator(v)
	attempt := newAttempt()
	err := c.Execute(context.Background(), attempt, "frxEURUSD")
	if !venue.IsRejection(err) {
		t.Fatalf("expected rejection error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeRejected {
		t.Errorf("expected rejected outcome, got %s", attempt.Outcome)
	}
	if v.polled != 0 {
		t.Error("rejected placement must not be polled")
	}
}

func TestExecuteAmbiguousSettlement(t *testing.T) {
	v := &scriptedVenue{contractID: "c-2", outcome: model.OutcomeUnknown}
	c := fastCoordinator(v)
	attempt := newAttempt()
	if err := c.Execute(context.Background(), attempt, "frxEURUSD"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if attempt.Outcome != model.OutcomeUnknown {
		t.Errorf("expected unknown outcome, got %s", attempt.Outcome)
	}
	if v.polled != 1 {
		t.Errorf("expected exactly one poll, got %d", v.polled)
	}
}

func TestExecutePollErrorYieldsUnknown(t *testing.T) {
	v := &scriptedVenue{contractID: "c-3", pollErr: errors.New("connection reset")}
	c := fastCoordinator(v)
	attempt := newAttempt()
	err := c.Execute(context.Background(), attempt, "frxEURUSD")
	if err == nil {
		t.Fatal("expected poll error to surface")
	}
	if attempt.Outcome != model.OutcomeUnknown {
		t.Errorf("expected unknown outcome on poll failure, got %s", attempt.Outcome)
	}
}

func TestExecuteContextExpiryDuringHold(t *testing.T) {
	v := &scriptedVenue{contractID: "c-4", outcome: model.OutcomeWon}
	c := &Coordinator{Venue: v, HoldingDuration: time.Second, SettlementGrace: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	attempt := newAttempt()
	err := c.Execute(ctx, attempt, "frxEURUSD")
	if err == nil {
		t.Fatal("expected context error")
	}
	if attempt.Outcome != model.OutcomeUnknown {
		t.Errorf("expected unknown outcome, got %s", attempt.Outcome)
	}
	if v.polled != 0 {
		t.Error("expired attempt must not poll")
	}
}
