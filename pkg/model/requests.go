package model

type CreateTripRequest struct {
	DriverID      string `json:"driver_id" validate:"required,max=128"`
	DriverName    string `json:"driver_name" validate:"required,min=2,max=100"`
	DriverEmail   string `json:"driver_email" validate:"required,email"`
	DepartureCity string `json:"departure_city" validate:"required,min=2,max=100"`
	ArrivalCity   string `json:"arrival_city" validate:"required,min=2,max=100,nefield=DepartureCity"`
	Address       string `json:"address" validate:"required,min=2,max=200"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string `json:"time" validate:"required,datetime=15:04"`
	PricePerSeat  int64  `json:"price_per_seat" validate:"min=1"`
	TotalSeats    int    `json:"total_seats" validate:"min=1,max=8"`
}

type DeactivateTripRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

type BookRequest struct {
	TripID          string `json:"trip_id" validate:"required,mongodb"`
	UserID          string `json:"user_id" validate:"required,max=128"`
	PassengerName   string `json:"passenger_name" validate:"required,min=2,max=100"`
	PassengerEmail  string `json:"passenger_email" validate:"required,email"`
	Seats           int    `json:"seats" validate:"omitempty,min=1,max=8"`
	PaymentMethodID string `json:"payment_method_id" validate:"required,max=255"`
}

// TransitionRequest carries a user-driven lifecycle verb (confirm, cancel,
// dispute). Role is the capacity the user claims to act in.
type TransitionRequest struct {
	TripID  string `json:"trip_id" validate:"required,mongodb"`
	OrderID string `json:"order_id" validate:"required,order_id"`
	UserID  string `json:"user_id" validate:"required,max=128"`
	Role    Role   `json:"role" validate:"required,oneof=driver passenger"`
}

type CaptureRequest struct {
	TripID      string `json:"trip_id" validate:"required,mongodb"`
	OrderID     string `json:"order_id" validate:"required,order_id"`
	AdminSecret string `json:"admin_secret" validate:"required"`
}

type SweepRequest struct {
	AdminSecret string `json:"admin_secret" validate:"required"`
}

// PaymentStatusRequest is authorized either by a booking party (UserID) or
// by the admin secret.
type PaymentStatusRequest struct {
	TripID      string `json:"trip_id" validate:"required,mongodb"`
	OrderID     string `json:"order_id" validate:"required,order_id"`
	UserID      string `json:"user_id" validate:"required_without=AdminSecret,max=128"`
	AdminSecret string `json:"admin_secret" validate:"required_without=UserID"`
}
