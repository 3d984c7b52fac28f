// Package deriv implements the venue interfaces over the Deriv websocket
// API. Every call dials its own connection: the protocol replies in
// request order on a socket, so independent connections keep concurrent
// per-instrument tasks from interfering with each other.
package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue"
)

// DefaultEndpoint is the public Deriv websocket endpoint.
const DefaultEndpoint = "wss://ws.derivws.com/websockets/v3"

// Config holds the venue client settings.
type Config struct {
	Endpoint    string
	AppID       string
	Currency    string
	CallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.AppID == "" {
		c.AppID = "1089"
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 30 * time.Second
	}
	return c
}

// Connector builds authenticated per-session venue handles.
type Connector struct {
	cfg Config
}

// NewConnector creates a Connector.
func NewConnector(cfg Config) *Connector {
	return &Connector{cfg: cfg.withDefaults()}
}

// Connect verifies the credential with a single authorize round-trip and
// returns a session-scoped venue handle.
func (c *Connector) Connect(ctx context.Context, creds model.Credentials) (venue.Venue, error) {
	s := &Session{cfg: c.cfg, token: creds.VenueToken}
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if err := s.authorize(conn); err != nil {
		return nil, err
	}
	return s, nil
}

// Session is one user's Deriv handle. It holds no live socket; each call
// dials, speaks and hangs up.
type Session struct {
	cfg   Config
	token string
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s?app_id=%s", s.cfg.Endpoint, s.cfg.AppID)
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial deriv: %w", err)
	}
	deadline := time.Now().Add(s.cfg.CallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)
	return conn, nil
}

// call sends one request and decodes the next reply into out.
func call(conn *websocket.Conn, req any, out any) error {
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	if err := conn.ReadJSON(out); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return nil
}

func (s *Session) authorize(conn *websocket.Conn) error {
	var resp struct {
		Error *apiError `json:"error"`
	}
	if err := call(conn, map[string]any{"authorize": s.token}, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("authorize: %s", resp.Error.Message)
	}
	return nil
}

// PlaceTrade runs the proposal/buy handshake and returns the contract id.
// Venue-side refusals surface as *venue.RejectionError.
func (s *Session) PlaceTrade(ctx context.Context, symbol string, stake float64, direction model.Direction, duration time.Duration) (string, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if err := s.authorize(conn); err != nil {
		return "", err
	}

	var proposal struct {
		Error    *apiError `json:"error"`
		Proposal *struct {
			ID string `json:"id"`
		} `json:"proposal"`
	}
	req := map[string]any{
		"proposal":      1,
		"amount":        stake,
		"basis":         "stake",
		"contract_type": string(direction),
		"currency":      s.cfg.Currency,
		"duration":      int(duration.Minutes()),
		"duration_unit": "m",
		"symbol":        symbol,
	}
	if err := call(conn, req, &proposal); err != nil {
		return "", err
	}
	if proposal.Error != nil {
		return "", &venue.RejectionError{Reason: proposal.Error.Message}
	}
	if proposal.Proposal == nil {
		return "", fmt.Errorf("proposal response missing body")
	}

	var buy struct {
		Error *apiError `json:"error"`
		Buy   *struct {
			ContractID json.Number `json:"contract_id"`
		} `json:"buy"`
	}
	if err := call(conn, map[string]any{"buy": proposal.Proposal.ID, "price": stake}, &buy); err != nil {
		return "", err
	}
	if buy.Error != nil {
		return "", &venue.RejectionError{Reason: buy.Error.Message}
	}
	if buy.Buy == nil {
		return "", fmt.Errorf("buy response missing body")
	}
	return buy.Buy.ContractID.String(), nil
}

// PollSettlement asks once for the contract status.
func (s *Session) PollSettlement(ctx context.Context, contractID string) (model.Outcome, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return model.OutcomeUnknown, err
	}
	defer conn.Close()
	if err := s.authorize(conn); err != nil {
		return model.OutcomeUnknown, err
	}

	cid, err := strconv.ParseInt(contractID, 10, 64)
	if err != nil {
		return model.OutcomeUnknown, fmt.Errorf("contract id %q: %w", contractID, err)
	}
	var resp struct {
		Error    *apiError `json:"error"`
		Contract *struct {
			Status string `json:"status"`
		} `json:"proposal_open_contract"`
	}
	if err := call(conn, map[string]any{"proposal_open_contract": 1, "contract_id": cid}, &resp); err != nil {
		return model.OutcomeUnknown, err
	}
	if resp.Error != nil {
		return model.OutcomeUnknown, fmt.Errorf("poll contract %s: %s", contractID, resp.Error.Message)
	}
	if resp.Contract == nil {
		return model.OutcomeUnknown, nil
	}
	switch resp.Contract.Status {
	case "won":
		return model.OutcomeWon, nil
	case "lost":
		return model.OutcomeLost, nil
	default:
		return model.OutcomeUnknown, nil
	}
}

// GetBars fetches candle history via ticks_history.
func (s *Session) GetBars(ctx context.Context, symbol string, periodSeconds, count int, asOf time.Time) ([]model.OHLCV, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var resp struct {
		Error   *apiError `json:"error"`
		Candles []struct {
			Open  float64 `json:"open"`
			High  float64 `json:"high"`
			Low   float64 `json:"low"`
			Close float64 `json:"close"`
			Epoch int64   `json:"epoch"`
		} `json:"candles"`
	}
	req := map[string]any{
		"ticks_history": symbol,
		"style":         "candles",
		"granularity":   periodSeconds,
		"count":         count,
		"end":           strconv.FormatInt(asOf.Unix(), 10),
	}
	if err := call(conn, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("ticks_history %s: %s", symbol, resp.Error.Message)
	}

	bars := make([]model.OHLCV, len(resp.Candles))
	for i, c := range resp.Candles {
		bars[i] = model.OHLCV{
			Time:  time.Unix(c.Epoch, 0),
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		}
	}
	return bars, nil
}

// Close is a no-op: the session keeps no live socket between calls.
func (s *Session) Close() error { return nil }
