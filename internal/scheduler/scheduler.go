// Package scheduler runs the cron-driven maintenance tasks that sit
// beside the per-session workers, currently the daily P&L digest.
package scheduler

import (
	"fmt"
	"log"
	"strings"

	"github.com/viicttorhugo/invest-botnuvem/internal/notifier"
	"github.com/viicttorhugo/invest-botnuvem/internal/recorder"
	"github.com/viicttorhugo/invest-botnuvem/internal/session"

	"github.com/robfig/cron/v3"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Registry *session.Registry
	Notifier notifier.Notifier
	Recorder recorder.Recorder
}

// NewScheduler creates a new Scheduler. Nil notifier/recorder fall back
// to no-op implementations.
func NewScheduler(reg *session.Registry, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	if n == nil {
		n = notifier.Noop{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Registry: reg,
		Notifier: n,
		Recorder: rec,
	}
}

// RegisterAll registers the daily digest task.
func (s *Scheduler) RegisterAll(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.dailyDigest); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDigestNow executes the digest immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunDigestNow() {
	s.dailyDigest()
}

func (s *Scheduler) dailyDigest() {
	log.Println("[INFO] running daily digest")
	users := s.Registry.RunningUsers()
	if len(users) == 0 {
		log.Println("[INFO] daily digest: no running sessions")
		return
	}
	for _, userID := range users {
		summaries := s.Registry.Summaries(userID)
		if len(summaries) == 0 {
			continue
		}
		s.Notifier.Send(formatDigest(userID, summaries))
		for _, sum := range summaries {
			if err := s.Recorder.RecordSummary(&recorder.SummaryRecord{
				UserID:         userID,
				Instrument:     sum.Instrument,
				AccumulatedPnL: sum.AccumulatedPnL,
				Wins:           sum.Wins,
				Losses:         sum.Losses,
				Halted:         sum.Halted,
			}); err != nil {
				log.Printf("[ERROR] record summary %s/%s: %v", userID, sum.Instrument, err)
			}
		}
	}
}

func formatDigest(userID string, summaries []session.InstrumentSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Daily digest: %s*\n", userID)
	var total float64
	for _, sum := range summaries {
		total += sum.AccumulatedPnL
		mark := ""
		if sum.Halted {
			mark = " ⛔"
		}
		fmt.Fprintf(&b, "\n%s: `$%+.2f` | W %d / L %d%s", sum.Instrument, sum.AccumulatedPnL, sum.Wins, sum.Losses, mark)
	}
	fmt.Fprintf(&b, "\n\nTotal: `$%+.2f`", total)
	return b.String()
}
