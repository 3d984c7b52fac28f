package strategy

import "github.com/viicttorhugo/invest-botnuvem/internal/signal"

// StaticProvider serves one shared model for a fixed instrument set.
// Instruments outside the set get no model and are excluded from
// evaluation for the session.
type StaticProvider struct {
	model       signal.Model
	instruments map[string]struct{}
}

// NewStaticProvider builds a provider serving the given model for the
// listed instruments. A nil model defaults to the built-in scorer.
func NewStaticProvider(m signal.Model, instruments []string) *StaticProvider {
	if m == nil {
		m = NewScorer()
	}
	set := make(map[string]struct{}, len(instruments))
	for _, name := range instruments {
		set[name] = struct{}{}
	}
	return &StaticProvider{model: m, instruments: set}
}

// ModelFor implements signal.ModelProvider.
func (p *StaticProvider) ModelFor(instrument string) (signal.Model, bool) {
	if _, ok := p.instruments[instrument]; !ok {
		return nil, false
	}
	return p.model, true
}
