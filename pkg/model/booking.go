package model

import "time"

type BookingStatus string

const (
	BookingAuthorized BookingStatus = "authorized"
	BookingCaptured   BookingStatus = "captured"
	BookingCancelled  BookingStatus = "cancelled"
	BookingDisputed   BookingStatus = "disputed"
)

type Role string

const (
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
)

// allowedTransitions lists every edge of the booking lifecycle. Captured and
// cancelled are terminal; disputed only leaves through an admin resolution.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingAuthorized: {BookingCaptured, BookingCancelled, BookingDisputed},
	BookingDisputed:   {BookingCaptured},
	BookingCaptured:   {},
	BookingCancelled:  {},
}

func CanTransition(from, to BookingStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ContactSnapshot is copied onto the booking when it is created so that
// notifications never need a profile lookup. It is not refreshed when the
// user profile changes.
type ContactSnapshot struct {
	DriverName     string `json:"driver_name" bson:"driver_name"`
	DriverEmail    string `json:"driver_email" bson:"driver_email"`
	PassengerName  string `json:"passenger_name" bson:"passenger_name"`
	PassengerEmail string `json:"passenger_email" bson:"passenger_email"`
}

type Booking struct {
	OrderID                string          `json:"order_id" bson:"order_id"`
	ParticipantID          string          `json:"participant_id" bson:"participant_id"`
	PaymentAuthorizationID string          `json:"payment_authorization_id" bson:"payment_authorization_id"`
	Seats                  int             `json:"seats" bson:"seats"`
	Amount                 int64           `json:"amount" bson:"amount"`
	Status                 BookingStatus   `json:"status" bson:"status"`
	CreatedAt              time.Time       `json:"created_at" bson:"created_at"`
	DriverConfirmedAt      *time.Time      `json:"driver_confirmed_at" bson:"driver_confirmed_at"`
	PassengerConfirmedAt   *time.Time      `json:"passenger_confirmed_at" bson:"passenger_confirmed_at"`
	CapturedAt             *time.Time      `json:"captured_at" bson:"captured_at"`
	CancelledAt            *time.Time      `json:"cancelled_at" bson:"cancelled_at"`
	DisputedAt             *time.Time      `json:"disputed_at" bson:"disputed_at"`
	DisputedBy             Role            `json:"disputed_by,omitempty" bson:"disputed_by,omitempty"`
	Contact                ContactSnapshot `json:"contact" bson:"contact"`
}

func (b *Booking) IsAuthorized() bool {
	return b.Status == BookingAuthorized
}

// HoldsSeat reports whether the booking still counts against trip capacity.
func (b *Booking) HoldsSeat() bool {
	return b.Status != BookingCancelled
}

func (b *Booking) BothConfirmed() bool {
	return b.DriverConfirmedAt != nil && b.PassengerConfirmedAt != nil
}

// SeatCount treats legacy records without a seat count as one seat.
func (b *Booking) SeatCount() int {
	if b.Seats <= 0 {
		return 1
	}
	return b.Seats
}

// BookingResult is returned by every lifecycle operation. Captured is set
// when the operation moved funds.
type BookingResult struct {
	TripID   string  `json:"trip_id"`
	Booking  Booking `json:"booking"`
	Captured bool    `json:"captured"`
}

// PaymentStatusResult compares the booking record with the processor's view.
type PaymentStatusResult struct {
	TripID                 string        `json:"trip_id"`
	OrderID                string        `json:"order_id"`
	BookingStatus          BookingStatus `json:"booking_status"`
	PaymentAuthorizationID string        `json:"payment_authorization_id"`
	PaymentStatus          string        `json:"payment_status"`
	Amount                 int64         `json:"amount"`
	Currency               string        `json:"currency"`
	InSync                 bool          `json:"in_sync"`
}
