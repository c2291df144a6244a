package service

import (
	"context"
	"fmt"
	"time"
	"tripshare/pkg/model"

	"github.com/google/uuid"
)

// EventPublisher informs downstream consumers of lifecycle transitions.
// Delivery is best effort; the engine never fails a transition on it.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
}

func (s *bookingService) newEvent(eventType model.EventType, trip *model.Trip, booking *model.Booking, actor model.Role) *model.BookingEvent {
	return &model.BookingEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		TripID:        trip.ID,
		OrderID:       booking.OrderID,
		ParticipantID: booking.ParticipantID,
		DriverID:      trip.DriverID,
		Status:        booking.Status,
		Actor:         actor,
		Amount:        booking.Amount,
		Currency:      s.cfg.PaymentCurrency,
		Route:         fmt.Sprintf("%s → %s", trip.DepartureCity, trip.ArrivalCity),
		Departure:     trip.Date + " " + trip.Time,
		Contact:       booking.Contact,
		OccurredAt:    s.now().UTC(),
	}
}

// notify runs after the trip lock is released. It is bounded by
// NotifyTimeout and survives cancellation of the request context.
func (s *bookingService) notify(ctx context.Context, event *model.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()

	start := time.Now()
	if err := s.events.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", event.Type,
			"trip_id", event.TripID,
			"order_id", event.OrderID,
			"duration", time.Since(start),
			"error", err,
		)
	}
}
