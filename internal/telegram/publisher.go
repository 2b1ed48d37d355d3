// internal/telegram/publisher.go
package telegram

import "log/slog"

// Publisher is the session-keyed publish point for inbound operator replies.
// A real-time delivery mechanism (long-poll or server-sent stream feeding
// the visitor's chat widget) can attach here without touching the Bridge
// contract.
type Publisher interface {
	Publish(sessionID, text string)
}

// LogPublisher is the current sole consumer of operator replies: it records
// them and drops them. Visitor-side delivery is not implemented yet.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(sessionID, text string) {
	p.logger.Info("Operator reply received", "session", sessionID, "text", text)
}
