package notifications

import (
	"fmt"
	"strings"
	"tripshare/pkg/model"
)

// Audience selects which notifications an event produces.
type Audience int

const (
	// Parties are the trip's driver and the booking's passenger.
	Parties Audience = iota
	// Operators receive admin alerts.
	Operators
)

type Renderer struct {
	adminEmail string
}

func NewRenderer(adminEmail string) *Renderer {
	return &Renderer{adminEmail: adminEmail}
}

func (r *Renderer) Render(event *model.BookingEvent, audience Audience) []Notification {
	if audience == Operators {
		return r.forOperators(event)
	}
	return r.forParties(event)
}

func (r *Renderer) forParties(event *model.BookingEvent) []Notification {
	c := event.Contact
	trip := fmt.Sprintf("%s on %s", route(event.Route), event.Departure)
	amount := formatAmount(event.Amount, event.Currency)

	switch event.Type {
	case model.EventBookingAuthorized:
		return []Notification{
			r.note(event, c.PassengerEmail, "Your seat is reserved",
				fmt.Sprintf("Hi %s, your booking %s for %s is confirmed. %s is on hold and will be charged after the ride.", c.PassengerName, event.OrderID, trip, amount)),
			r.note(event, c.DriverEmail, "New passenger booked",
				fmt.Sprintf("Hi %s, %s booked your trip %s.", c.DriverName, c.PassengerName, trip)),
		}
	case model.EventBookingConfirmed:
		other, otherName := c.DriverEmail, c.DriverName
		if event.Actor == model.RoleDriver {
			other, otherName = c.PassengerEmail, c.PassengerName
		}
		return []Notification{
			r.note(event, other, "Ride confirmed by the other party",
				fmt.Sprintf("Hi %s, the %s confirmed the ride %s. Confirm on your side to complete it.", otherName, event.Actor, trip)),
		}
	case model.EventBookingCaptured:
		return []Notification{
			r.note(event, c.PassengerEmail, "Payment completed",
				fmt.Sprintf("Hi %s, %s was charged for %s.", c.PassengerName, amount, trip)),
			r.note(event, c.DriverEmail, "Payment received",
				fmt.Sprintf("Hi %s, the payment of %s for booking %s is complete.", c.DriverName, amount, event.OrderID)),
		}
	case model.EventBookingCancelled:
		return []Notification{
			r.note(event, c.PassengerEmail, "Booking cancelled",
				fmt.Sprintf("Hi %s, booking %s for %s was cancelled and the hold of %s released.", c.PassengerName, event.OrderID, trip, amount)),
			r.note(event, c.DriverEmail, "Booking cancelled",
				fmt.Sprintf("Hi %s, %s's booking for %s was cancelled.", c.DriverName, c.PassengerName, trip)),
		}
	case model.EventBookingDisputed:
		body := fmt.Sprintf("Booking %s for %s is under review. The payment stays on hold until support resolves it.", event.OrderID, trip)
		return []Notification{
			r.note(event, c.PassengerEmail, "Booking under review", body),
			r.note(event, c.DriverEmail, "Booking under review", body),
		}
	default:
		return nil
	}
}

func (r *Renderer) forOperators(event *model.BookingEvent) []Notification {
	switch event.Type {
	case model.EventBookingDisputed:
		return []Notification{
			r.note(event, r.adminEmail, fmt.Sprintf("[dispute] trip %s order %s", event.TripID, event.OrderID),
				fmt.Sprintf("Disputed by the %s. Route %s, departure %s, amount %s. Driver %s <%s>, passenger %s <%s>.",
					event.Actor, route(event.Route), event.Departure, formatAmount(event.Amount, event.Currency),
					event.Contact.DriverName, event.Contact.DriverEmail,
					event.Contact.PassengerName, event.Contact.PassengerEmail)),
		}
	case model.EventReconciliationRequired:
		return []Notification{
			r.note(event, r.adminEmail, fmt.Sprintf("[reconciliation] trip %s order %s", event.TripID, event.OrderID),
				fmt.Sprintf("%s Booking status on record: %s. Amount %s.", event.Reason, event.Status, formatAmount(event.Amount, event.Currency))),
		}
	default:
		return nil
	}
}

func (r *Renderer) note(event *model.BookingEvent, recipient, subject, body string) Notification {
	return Notification{
		EventID:   event.ID,
		EventType: string(event.Type),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	}
}

// route turns stored city keys back into readable names.
func route(r string) string {
	return strings.ReplaceAll(r, "_", " ")
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, strings.ToUpper(currency))
}
