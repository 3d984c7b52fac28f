package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/quote"
)

// Paper is an in-memory venue for paper trading: placements are accepted
// unconditionally and settle against the quote source's price movement
// between placement and poll.
type Paper struct {
	source quote.Source

	mu     sync.Mutex
	seq    int
	trades map[string]paperTrade
}

type paperTrade struct {
	symbol    string
	direction model.Direction
	entry     float64
}

// NewPaper creates a paper venue priced by the given source.
func NewPaper(source quote.Source) *Paper {
	return &Paper{source: source, trades: make(map[string]paperTrade)}
}

// PaperConnector hands out one shared paper venue for any credential.
type PaperConnector struct {
	Venue *Paper
}

func (c *PaperConnector) Connect(_ context.Context, _ model.Credentials) (Venue, error) {
	return c.Venue, nil
}

func (p *Paper) latestClose(ctx context.Context, symbol string) (float64, error) {
	bars, err := p.source.GetBars(ctx, symbol, 60, 2, time.Now())
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no bars for %s", symbol)
	}
	return bars[len(bars)-1].Close, nil
}

func (p *Paper) PlaceTrade(ctx context.Context, symbol string, stake float64, direction model.Direction, _ time.Duration) (string, error) {
	if stake <= 0 {
		return "", &RejectionError{Reason: "invalid stake"}
	}
	entry, err := p.latestClose(ctx, symbol)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := fmt.Sprintf("paper-%d", p.seq)
	p.trades[id] = paperTrade{symbol: symbol, direction: direction, entry: entry}
	return id, nil
}

func (p *Paper) PollSettlement(ctx context.Context, contractID string) (model.Outcome, error) {
	p.mu.Lock()
	tr, ok := p.trades[contractID]
	p.mu.Unlock()
	if !ok {
		return model.OutcomeUnknown, nil
	}

	exit, err := p.latestClose(ctx, tr.symbol)
	if err != nil {
		return model.OutcomeUnknown, err
	}
	won := (tr.direction == model.DirectionUp && exit > tr.entry) ||
		(tr.direction == model.DirectionDown && exit < tr.entry)
	if won {
		return model.OutcomeWon, nil
	}
	return model.OutcomeLost, nil
}

func (p *Paper) GetBars(ctx context.Context, symbol string, periodSeconds, count int, asOf time.Time) ([]model.OHLCV, error) {
	return p.source.GetBars(ctx, symbol, periodSeconds, count, asOf)
}

func (p *Paper) Close() error { return nil }
