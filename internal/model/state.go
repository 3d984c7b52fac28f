package model

// InstrumentParams are the per-instrument inputs supplied at session start.
type InstrumentParams struct {
	InitialStake float64
	StopGain     float64
	StopLoss     float64
}

// InstrumentState is the mutable per-instrument state of one session.
// It is created when the session starts and mutated only by the owning
// worker while it applies settlement results.
type InstrumentState struct {
	Instrument      string
	VenueSymbol     string
	InitialStake    float64
	CurrentStake    float64
	MartingaleLevel int
	StopGain        float64
	StopLoss        float64
	AccumulatedPnL  float64
	// Halted latches once a stop threshold is crossed; it is never
	// cleared within a session.
	Halted bool
}

// NewInstrumentState builds the initial state for one instrument.
func NewInstrumentState(instrument, venueSymbol string, p InstrumentParams) *InstrumentState {
	return &InstrumentState{
		Instrument:   instrument,
		VenueSymbol:  venueSymbol,
		InitialStake: p.InitialStake,
		CurrentStake: p.InitialStake,
		StopGain:     p.StopGain,
		StopLoss:     p.StopLoss,
	}
}

// Credentials is the opaque venue credential handle held by a session.
type Credentials struct {
	VenueToken string
	Account    string
}
