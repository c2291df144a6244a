package notifications

import (
	"context"
	"fmt"
	"tripshare/pkg/kafka"
	"tripshare/pkg/logger"
	"tripshare/pkg/model"
)

// Dispatcher is the consumer handler for one topic. Undecodable events are
// permanent failures and go to the DLQ; sink failures are retried.
type Dispatcher struct {
	renderer *Renderer
	sink     Sink
	audience Audience
	log      *logger.Logger
}

func NewDispatcher(renderer *Renderer, sink Sink, audience Audience, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		sink:     sink,
		audience: audience,
		log:      log,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable booking event", err)
	}
	if event.ID == "" || event.Type == "" {
		return kafka.NewPermanentError("booking event without id or type", nil)
	}

	notifications := d.renderer.Render(&event, d.audience)
	if len(notifications) == 0 {
		d.log.Debug("No notification for event", "event_id", event.ID, "event_type", event.Type)
		return nil
	}

	for _, n := range notifications {
		if n.Recipient == "" {
			d.log.Warn("Skipping notification without recipient", "event_id", event.ID, "subject", n.Subject)
			continue
		}
		if err := d.sink.Send(ctx, n); err != nil {
			return kafka.NewTransientError(fmt.Sprintf("failed to deliver %s notification", event.Type), err).
				WithDetail("recipient", n.Recipient)
		}
	}
	return nil
}
