package model

import "time"

type EventType string

const (
	EventBookingAuthorized      EventType = "booking.authorized"
	EventBookingConfirmed       EventType = "booking.confirmed"
	EventBookingCaptured        EventType = "booking.captured"
	EventBookingCancelled       EventType = "booking.cancelled"
	EventBookingDisputed        EventType = "booking.disputed"
	EventReconciliationRequired EventType = "payment.reconciliation_required"
)

// BookingEvent is published on every lifecycle transition. It carries the
// booking's contact snapshot so consumers can notify without lookups.
type BookingEvent struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	TripID        string          `json:"trip_id"`
	OrderID       string          `json:"order_id"`
	ParticipantID string          `json:"participant_id"`
	DriverID      string          `json:"driver_id"`
	Status        BookingStatus   `json:"status"`
	Actor         Role            `json:"actor,omitempty"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Route         string          `json:"route"`
	Departure     string          `json:"departure"`
	Contact       ContactSnapshot `json:"contact"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// IsAdminAlert reports whether the event must also reach the admin channel.
func (e *BookingEvent) IsAdminAlert() bool {
	return e.Type == EventBookingDisputed || e.Type == EventReconciliationRequired
}
