// Package venue defines the execution-venue surface a session trades
// against: authenticated connection, placement and settlement polling.
package venue

import (
	"context"
	"errors"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/quote"
)

// RejectionError means the venue refused a placement (insufficient funds,
// closed market, invalid parameters). It is terminal for the cycle: no
// retry, no state change.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return "venue rejected trade: " + e.Reason }

// IsRejection reports whether err is a venue rejection.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// Venue is one session's handle on the execution venue. It also serves
// price bars so a session works through a single venue client. Requests
// never share an outstanding connection; implementations either serialize
// or dial per call.
type Venue interface {
	quote.Source

	// PlaceTrade requests a contract and returns its opaque handle.
	PlaceTrade(ctx context.Context, symbol string, stake float64, direction model.Direction, duration time.Duration) (contractID string, err error)

	// PollSettlement asks once for the contract status. Statuses outside
	// won/lost come back as OutcomeUnknown.
	PollSettlement(ctx context.Context, contractID string) (model.Outcome, error)

	// Close releases the venue connection.
	Close() error
}

// Connector authenticates credentials and yields a per-session venue.
type Connector interface {
	Connect(ctx context.Context, creds model.Credentials) (Venue, error)
}
