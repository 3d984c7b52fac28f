package model

import "time"

// LogTag classifies a session log entry for the status poller.
type LogTag string

const (
	LogInfo LogTag = "info"
	LogWarn LogTag = "warn"
	LogGain LogTag = "gain"
	LogLoss LogTag = "loss"
)

// LogEntry is one line of a session's user-visible log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Tag     LogTag    `json:"t"`
	Message string    `json:"m"`
}
