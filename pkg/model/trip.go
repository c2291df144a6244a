package model

import (
	"fmt"
	"time"
)

const (
	TripDateLayout = "2006-01-02"
	TripTimeLayout = "15:04"
)

// Trip owns its bookings; every booking change is written back as the full
// booking list together with the derived seat and participant fields.
type Trip struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	DriverID       string    `json:"driver_id" bson:"driver_id"`
	DriverName     string    `json:"driver_name" bson:"driver_name"`
	DriverEmail    string    `json:"driver_email" bson:"driver_email"`
	DepartureCity  string    `json:"departure_city" bson:"departure_city"`
	ArrivalCity    string    `json:"arrival_city" bson:"arrival_city"`
	Address        string    `json:"address" bson:"address"`
	Date           string    `json:"date" bson:"date"`
	Time           string    `json:"time" bson:"time"`
	PricePerSeat   int64     `json:"price_per_seat" bson:"price_per_seat"`
	TotalSeats     int       `json:"total_seats" bson:"total_seats"`
	AvailableSeats int       `json:"available_seats" bson:"available_seats"`
	Active         bool      `json:"active" bson:"active"`
	Participants   []string  `json:"participants" bson:"participants"`
	Bookings       []Booking `json:"bookings" bson:"bookings"`
	Version        int64     `json:"version" bson:"version"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// DepartureTime combines the trip's local date and time in loc.
func (t *Trip) DepartureTime(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	departure, err := time.ParseInLocation(TripDateLayout+" "+TripTimeLayout, t.Date+" "+t.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid departure %q %q: %w", t.Date, t.Time, err)
	}
	return departure, nil
}

func (t *Trip) BookingIndex(orderID string) int {
	for i := range t.Bookings {
		if t.Bookings[i].OrderID == orderID {
			return i
		}
	}
	return -1
}

// OpenBookingFor returns the participant's booking that still holds a seat.
func (t *Trip) OpenBookingFor(participantID string) *Booking {
	for i := range t.Bookings {
		if t.Bookings[i].ParticipantID == participantID && t.Bookings[i].HoldsSeat() {
			return &t.Bookings[i]
		}
	}
	return nil
}

func (t *Trip) HasAuthorizedBookings() bool {
	for i := range t.Bookings {
		if t.Bookings[i].IsAuthorized() {
			return true
		}
	}
	return false
}

// WithBooking returns a new booking list equal to the trip's with the element
// at idx replaced. The trip itself is not modified.
func (t *Trip) WithBooking(idx int, booking Booking) []Booking {
	next := make([]Booking, len(t.Bookings))
	copy(next, t.Bookings)
	next[idx] = booking
	return next
}

// ReleaseSeats frees the seats of a cancelled booking and drops exactly one
// occurrence of its participant.
func (t *Trip) ReleaseSeats(booking *Booking) {
	t.AvailableSeats += booking.SeatCount()
	participants := make([]string, 0, len(t.Participants))
	removed := false
	for _, id := range t.Participants {
		if !removed && id == booking.ParticipantID {
			removed = true
			continue
		}
		participants = append(participants, id)
	}
	t.Participants = participants
}

// HoldSeats reserves seats for a new booking.
func (t *Trip) HoldSeats(booking *Booking) {
	t.AvailableSeats -= booking.SeatCount()
	t.Participants = append(append([]string{}, t.Participants...), booking.ParticipantID)
}
