package model

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Direction is the predicted price direction for a contract.
type Direction string

const (
	DirectionUp   Direction = "CALL"
	DirectionDown Direction = "PUT"
)

// Outcome is the settlement result of a trade attempt.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeWon      Outcome = "won"
	OutcomeLost     Outcome = "lost"
	OutcomeUnknown  Outcome = "unknown"
	OutcomeRejected Outcome = "rejected"
)

// Settled reports whether the venue gave a definitive result.
func (o Outcome) Settled() bool { return o == OutcomeWon || o == OutcomeLost }

// TradeAttempt tracks one placement for one instrument within a single
// evaluation cycle. It is never persisted as-is; the recorder keeps its
// own flattened row.
type TradeAttempt struct {
	ID         string
	Instrument string
	Direction  Direction
	Stake      float64
	Confidence float64
	PlacedAt   time.Time
	ContractID string
	Outcome    Outcome
}

var (
	ulidMu   sync.Mutex
	ulidMono io.Reader
)

func init() {
	// Seed the monotonic ULID entropy from crypto/rand so attempt IDs are
	// unpredictable yet time-sortable within a millisecond.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ulidMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewAttemptID returns a lexicographically sortable trade attempt ID.
func NewAttemptID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), ulidMono)
	if err != nil {
		panic(err)
	}
	return id.String()
}
