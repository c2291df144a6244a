// Package notifications turns booking events into messages for drivers,
// passengers and operators.
package notifications

import (
	"context"
	"tripshare/pkg/logger"
)

type Notification struct {
	EventID   string
	EventType string
	Recipient string
	Subject   string
	Body      string
}

// Sink delivers rendered notifications. Email delivery lives outside this
// service; the log sink stands in for it.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, n Notification) error {
	s.log.Info("Notification sent",
		"event_id", n.EventID,
		"event_type", n.EventType,
		"recipient", n.Recipient,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}
