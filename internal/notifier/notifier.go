// Package notifier delivers best-effort status messages to an external
// channel. Delivery failures are logged and swallowed, never propagated.
package notifier

// Notifier sends a message without reporting failure to the caller.
type Notifier interface {
	Send(text string)
}

// Noop drops every message.
type Noop struct{}

func (Noop) Send(string) {}
