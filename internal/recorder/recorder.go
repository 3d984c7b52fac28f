package recorder

import (
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// TradeRecord is the flattened row persisted for every concluded attempt,
// rejected placements included.
type TradeRecord struct {
	AttemptID       string
	UserID          string
	Instrument      string
	ContractID      string
	Direction       model.Direction
	Stake           float64
	Confidence      float64
	Outcome         model.Outcome
	PnLDelta        float64
	MartingaleLevel int // ladder level the stake was placed at
	PlacedAt        time.Time
}

// SummaryRecord is a per-instrument daily digest row.
type SummaryRecord struct {
	UserID         string
	Instrument     string
	AccumulatedPnL float64
	Wins           int
	Losses         int
	Halted         bool
}

// Recorder persists trading history for later analysis.
type Recorder interface {
	RecordTrade(rec *TradeRecord) error
	RecordSummary(rec *SummaryRecord) error
	Close() error
}
