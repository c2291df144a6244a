// Package events delivers booking lifecycle events to the notification
// pipeline.
package events

import (
	"context"
	"errors"
	"fmt"
	"tripshare/pkg/kafka"
	"tripshare/pkg/logger"
	"tripshare/pkg/middleware"
	"tripshare/pkg/model"
)

const (
	eventSource   = "bookings"
	schemaVersion = "1"
)

// messagePublisher is satisfied by *kafka.Producer.
type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes every event to the booking events topic and admin
// alerts additionally to the alerts topic.
type KafkaPublisher struct {
	events messagePublisher
	alerts messagePublisher
}

func NewKafkaPublisher(events, alerts messagePublisher) *KafkaPublisher {
	return &KafkaPublisher{events: events, alerts: alerts}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.TripID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(eventSource).
		Build()
	if err != nil {
		return err
	}

	var errs []error
	if err := p.events.Publish(ctx, msg); err != nil {
		errs = append(errs, fmt.Errorf("booking events: %w", err))
	}
	if event.IsAdminAlert() && p.alerts != nil {
		if err := p.alerts.Publish(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("admin alerts: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LogPublisher records events in the service log when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event *model.BookingEvent) error {
	fields := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"trip_id", event.TripID,
		"order_id", event.OrderID,
		"status", event.Status,
	}
	if event.IsAdminAlert() {
		p.log.Warn("Admin alert", append(fields, "reason", event.Reason)...)
		return nil
	}
	p.log.Info("Booking event", fields...)
	return nil
}
