// Package admission holds the two gates checked before an instrument is
// evaluated: the time-of-day trading windows and the per-instrument stop
// thresholds. Both gates are pure checks; latching a tripped risk gate is
// the caller's job.
package admission

import (
	"fmt"
	"strings"
	"time"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// Window is an inclusive [start, end] trading interval, held at minute
// granularity so a 10:00:45 clock still counts as 10:00.
type Window struct {
	startMin int // minute of day
	endMin   int
}

// NewWindow builds a window from hour/minute bounds.
func NewWindow(startHour, startMin, endHour, endMin int) Window {
	return Window{startMin: startHour*60 + startMin, endMin: endHour*60 + endMin}
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("window %q: expected HH:MM-HH:MM", s)
	}
	start, err := parseMinuteOfDay(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("window %q: %w", s, err)
	}
	end, err := parseMinuteOfDay(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("window %q: %w", s, err)
	}
	if end < start {
		return Window{}, fmt.Errorf("window %q: end before start", s)
	}
	return Window{startMin: start, endMin: end}, nil
}

func parseMinuteOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// ParseWindows parses an ordered list of "HH:MM-HH:MM" intervals.
func ParseWindows(specs []string) ([]Window, error) {
	windows := make([]Window, 0, len(specs))
	for _, s := range specs {
		w, err := ParseWindow(s)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// DefaultWindows returns the stock trading windows.
func DefaultWindows() []Window {
	return []Window{
		NewWindow(8, 0, 10, 0),
		NewWindow(10, 30, 12, 0),
		NewWindow(12, 30, 14, 30),
		NewWindow(15, 0, 16, 30),
	}
}

// TimeAllowed reports whether now falls inside any window, inclusive on
// both ends.
func TimeAllowed(windows []Window, now time.Time) bool {
	minute := now.Hour()*60 + now.Minute()
	for _, w := range windows {
		if minute >= w.startMin && minute <= w.endMin {
			return true
		}
	}
	return false
}

// RiskAllowed reports whether an instrument may still trade. It is false
// once the instrument has been halted or its accumulated P&L has reached
// either stop threshold.
func RiskAllowed(st *model.InstrumentState) bool {
	if st.Halted {
		return false
	}
	return st.AccumulatedPnL < st.StopGain && st.AccumulatedPnL > st.StopLoss
}
