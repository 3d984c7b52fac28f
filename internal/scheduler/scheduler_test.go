package scheduler

import (
	"strings"
	"testing"

	"github.com/viicttorhugo/invest-botnuvem/internal/session"
)

func TestRegisterAllRejectsBadCron(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	if err := s.RegisterAll("not a cron spec"); err == nil {
		t.Error("expected an error for a malformed cron spec")
	}
	if err := s.RegisterAll("0 0 18 * * 1-5"); err != nil {
		t.Errorf("valid cron spec rejected: %v", err)
	}
}

func TestFormatDigest(t *testing.T) {
	got := formatDigest("alice", []session.InstrumentSummary{
		{Instrument: "EURUSD", AccumulatedPnL: 3.6, Wins: 4, Losses: 2},
		{Instrument: "USDJPY", AccumulatedPnL: -8, Wins: 1, Losses: 3, Halted: true},
	})

	for _, want := range []string{"alice", "EURUSD", "$+3.60", "W 4 / L 2", "USDJPY", "$-8.00", "⛔", "$-4.40"} {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q:\n%s", want, got)
		}
	}
}
