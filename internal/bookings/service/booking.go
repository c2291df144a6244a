package service

import (
	"context"
	"fmt"
	"time"
	"tripshare/internal/bookings/repository"
	"tripshare/internal/bookings/validator"
	"tripshare/pkg/config"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/model"
	"tripshare/pkg/payment"
	"tripshare/pkg/sanitizer"

	"github.com/google/uuid"
)

const reconciliationLogMessage = "Payment state needs manual reconciliation"

type BookingService interface {
	Book(ctx context.Context, req *model.BookRequest) (*model.BookingResult, error)
	Confirm(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error)
	Cancel(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error)
	Dispute(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error)
	Capture(ctx context.Context, req *model.CaptureRequest) (*model.BookingResult, error)
	ResolveDispute(ctx context.Context, req *model.CaptureRequest) (*model.BookingResult, error)
	PaymentStatus(ctx context.Context, req *model.PaymentStatusRequest) (*model.PaymentStatusResult, error)
	AutoCapture(ctx context.Context, adminSecret string) (*model.SweepReport, error)
}

type bookingService struct {
	repo      repository.TripRepository
	locker    *tripLocker
	gateway   payment.Gateway
	events    EventPublisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.TripRepository,
	lockRepo repository.TripLockRepository,
	gateway payment.Gateway,
	events EventPublisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locker:    newTripLocker(lockRepo, cfg),
		gateway:   gateway,
		events:    events,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// gatewayAction runs against the booking's authorization before the write.
type gatewayAction func(ctx context.Context, authorizationID string) error

// transition describes one status change of an existing booking.
type transition struct {
	operation string
	from      model.BookingStatus
	authorize func(trip *model.Trip, booking *model.Booking) error
	// apply edits next, a copy of the current booking, and may adjust the
	// trip's derived capacity fields. It returns the gateway action to run
	// before the write, or nil.
	apply func(trip *model.Trip, next *model.Booking, now time.Time) (string, gatewayAction)
}

// mutate is the single read-modify-write path for existing bookings: lock,
// read, authorize, check status, call the gateway, then write the whole
// booking list once.
func (s *bookingService) mutate(ctx context.Context, tripID, orderID string, t transition) (*model.Trip, *model.Booking, error) {
	release, err := s.locker.acquire(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	trip, err := loadTrip(ctx, s.repo, tripID)
	if err != nil {
		return nil, nil, err
	}
	idx := trip.BookingIndex(orderID)
	if idx < 0 {
		return nil, nil, apperrors.NotFoundWithID("Booking", orderID)
	}
	current := trip.Bookings[idx]

	if err := t.authorize(trip, &current); err != nil {
		return nil, nil, err
	}
	if current.Status != t.from {
		return nil, nil, apperrors.Conflict(fmt.Sprintf("Booking is %s and cannot be %s", current.Status, t.operation)).
			WithDetails(map[string]any{"status": current.Status, "order_id": orderID})
	}

	next := current
	gatewayOp, action := t.apply(trip, &next, s.now().UTC())
	if !model.CanTransition(current.Status, next.Status) && next.Status != current.Status {
		return nil, nil, apperrors.Internal("Invalid booking transition", fmt.Errorf("%s -> %s", current.Status, next.Status))
	}

	if action != nil {
		if err := action(ctx, current.PaymentAuthorizationID); err != nil {
			s.cfg.Log.Error("Payment gateway call failed",
				"operation", gatewayOp,
				"trip_id", tripID,
				"order_id", orderID,
				"payment_authorization_id", current.PaymentAuthorizationID,
				"error", err,
			)
			return nil, nil, apperrors.GatewayFailure(gatewayOp, err)
		}
	}

	trip.Bookings = trip.WithBooking(idx, next)

	writeCtx := ctx
	if action != nil {
		// Money has moved; the record must follow even if the caller left.
		writeCtx = context.WithoutCancel(ctx)
	}
	if err := s.repo.UpdateBookingState(writeCtx, trip); err != nil {
		if action != nil {
			return nil, nil, s.reconciliation(ctx, trip, &next, gatewayOp, err)
		}
		s.cfg.Log.Error("Failed to update booking", "trip_id", tripID, "order_id", orderID, "error", err)
		return nil, nil, translateWriteError("Failed to update booking", err)
	}

	s.cfg.Log.Info("Booking updated",
		"operation", t.operation,
		"trip_id", tripID,
		"order_id", orderID,
		"status", next.Status,
	)
	return trip, &next, nil
}

// reconciliation reports a gateway action that succeeded without the
// matching store write.
func (s *bookingService) reconciliation(ctx context.Context, trip *model.Trip, booking *model.Booking, operation string, err error) error {
	s.cfg.Log.Error(reconciliationLogMessage,
		"trip_id", trip.ID,
		"order_id", booking.OrderID,
		"payment_authorization_id", booking.PaymentAuthorizationID,
		"operation", operation,
		"error", err,
	)

	alert := s.newEvent(model.EventReconciliationRequired, trip, booking, "")
	alert.Reason = fmt.Sprintf("%s succeeded at the payment processor but the booking write failed: %v", operation, err)
	s.notify(ctx, alert)

	return apperrors.NeedsReconciliation("Payment succeeded but the booking could not be updated", err, map[string]any{
		"trip_id":                  trip.ID,
		"order_id":                 booking.OrderID,
		"payment_authorization_id": booking.PaymentAuthorizationID,
		"operation":                operation,
	})
}

func (s *bookingService) captureAction() gatewayAction {
	return s.gateway.Capture
}

func (s *bookingService) Book(ctx context.Context, req *model.BookRequest) (*model.BookingResult, error) {
	req.PassengerName = sanitizer.SanitizeName(req.PassengerName)
	req.PassengerEmail = sanitizer.SanitizeEmail(req.PassengerEmail)
	if req.Seats == 0 {
		req.Seats = 1
	}
	if err := s.validator.ValidateBook(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	release, err := s.locker.acquire(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	defer release()

	trip, err := loadTrip(ctx, s.repo, req.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookable(trip, req); err != nil {
		return nil, err
	}

	booking := model.Booking{
		OrderID:       uuid.NewString(),
		ParticipantID: req.UserID,
		Seats:         req.Seats,
		Amount:        trip.PricePerSeat * int64(req.Seats),
		Status:        model.BookingAuthorized,
		CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
		Contact: model.ContactSnapshot{
			DriverName:     trip.DriverName,
			DriverEmail:    trip.DriverEmail,
			PassengerName:  req.PassengerName,
			PassengerEmail: req.PassengerEmail,
		},
	}

	auth, err := s.gateway.Authorize(ctx, payment.AuthorizeRequest{
		OrderID:         booking.OrderID,
		TripID:          trip.ID,
		ParticipantID:   req.UserID,
		Amount:          booking.Amount,
		Currency:        s.cfg.PaymentCurrency,
		PaymentMethodID: req.PaymentMethodID,
		Description:     fmt.Sprintf("Trip %s → %s on %s %s", trip.DepartureCity, trip.ArrivalCity, trip.Date, trip.Time),
	})
	if err != nil {
		s.cfg.Log.Error("Payment authorization failed", "trip_id", trip.ID, "order_id", booking.OrderID, "error", err)
		return nil, apperrors.GatewayFailure("authorize", err)
	}
	booking.PaymentAuthorizationID = auth.ID

	bookings := make([]model.Booking, 0, len(trip.Bookings)+1)
	bookings = append(bookings, trip.Bookings...)
	trip.Bookings = append(bookings, booking)
	trip.HoldSeats(&booking)

	if err := s.repo.UpdateBookingState(context.WithoutCancel(ctx), trip); err != nil {
		return nil, s.compensateAuthorization(ctx, trip, &booking, err)
	}

	s.cfg.Log.Info("Booking authorized",
		"trip_id", trip.ID,
		"order_id", booking.OrderID,
		"participant_id", booking.ParticipantID,
		"seats", booking.Seats,
		"amount", booking.Amount,
	)
	release()
	s.notify(ctx, s.newEvent(model.EventBookingAuthorized, trip, &booking, model.RolePassenger))
	return &model.BookingResult{TripID: trip.ID, Booking: booking}, nil
}

func (s *bookingService) checkBookable(trip *model.Trip, req *model.BookRequest) error {
	if !trip.Active {
		return apperrors.Conflict("Trip is not accepting bookings")
	}
	if trip.DriverID == req.UserID {
		return apperrors.Forbidden("Drivers cannot book their own trip")
	}
	if trip.OpenBookingFor(req.UserID) != nil {
		return apperrors.Conflict("User already holds a booking on this trip")
	}
	if trip.AvailableSeats < req.Seats {
		return apperrors.Conflict("Not enough seats available").
			WithDetails(map[string]any{"available_seats": trip.AvailableSeats, "requested": req.Seats})
	}
	departure, err := trip.DepartureTime(s.cfg.TripLocation)
	if err != nil {
		return apperrors.Internal("Trip has an invalid departure", err)
	}
	if !departure.After(s.now()) {
		return apperrors.Conflict("Trip has already departed")
	}
	return nil
}

// compensateAuthorization voids a hold whose booking could not be stored.
func (s *bookingService) compensateAuthorization(ctx context.Context, trip *model.Trip, booking *model.Booking, writeErr error) error {
	s.cfg.Log.Error("Failed to store authorized booking, voiding authorization",
		"trip_id", trip.ID,
		"order_id", booking.OrderID,
		"payment_authorization_id", booking.PaymentAuthorizationID,
		"error", writeErr,
	)

	if err := s.gateway.Cancel(context.WithoutCancel(ctx), booking.PaymentAuthorizationID); err != nil {
		return s.reconciliation(ctx, trip, booking, "authorize", fmt.Errorf("%w; void failed: %v", writeErr, err))
	}
	return translateWriteError("Failed to store booking", writeErr)
}

func (s *bookingService) Confirm(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
	if err := s.validateTransition(req); err != nil {
		return nil, err
	}

	trip, booking, err := s.mutate(ctx, req.TripID, req.OrderID, transition{
		operation: "confirmed",
		from:      model.BookingAuthorized,
		authorize: func(trip *model.Trip, b *model.Booking) error {
			return authorizeActor(trip, b, req.UserID, req.Role)
		},
		apply: func(_ *model.Trip, next *model.Booking, now time.Time) (string, gatewayAction) {
			stamp := now
			if req.Role == model.RoleDriver {
				next.DriverConfirmedAt = &stamp
			} else {
				next.PassengerConfirmedAt = &stamp
			}
			if !next.BothConfirmed() {
				return "", nil
			}
			next.Status = model.BookingCaptured
			next.CapturedAt = &stamp
			return "capture", s.captureAction()
		},
	})
	if err != nil {
		return nil, err
	}

	captured := booking.Status == model.BookingCaptured
	s.notify(ctx, s.newEvent(model.EventBookingConfirmed, trip, booking, req.Role))
	if captured {
		s.notify(ctx, s.newEvent(model.EventBookingCaptured, trip, booking, req.Role))
	}
	return &model.BookingResult{TripID: trip.ID, Booking: *booking, Captured: captured}, nil
}

func (s *bookingService) Cancel(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
	if err := s.validateTransition(req); err != nil {
		return nil, err
	}

	trip, booking, err := s.mutate(ctx, req.TripID, req.OrderID, transition{
		operation: "cancelled",
		from:      model.BookingAuthorized,
		authorize: func(trip *model.Trip, b *model.Booking) error {
			return authorizeActor(trip, b, req.UserID, req.Role)
		},
		apply: func(trip *model.Trip, next *model.Booking, now time.Time) (string, gatewayAction) {
			next.Status = model.BookingCancelled
			next.CancelledAt = &now
			trip.ReleaseSeats(next)
			return "cancel", s.gateway.Cancel
		},
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, s.newEvent(model.EventBookingCancelled, trip, booking, req.Role))
	return &model.BookingResult{TripID: trip.ID, Booking: *booking}, nil
}

func (s *bookingService) Dispute(ctx context.Context, req *model.TransitionRequest) (*model.BookingResult, error) {
	if err := s.validateTransition(req); err != nil {
		return nil, err
	}

	trip, booking, err := s.mutate(ctx, req.TripID, req.OrderID, transition{
		operation: "disputed",
		from:      model.BookingAuthorized,
		authorize: func(trip *model.Trip, b *model.Booking) error {
			return authorizeActor(trip, b, req.UserID, req.Role)
		},
		apply: func(_ *model.Trip, next *model.Booking, now time.Time) (string, gatewayAction) {
			next.Status = model.BookingDisputed
			next.DisputedAt = &now
			next.DisputedBy = req.Role
			return "", nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Warn("Booking disputed", "trip_id", trip.ID, "order_id", booking.OrderID, "disputed_by", req.Role)
	s.notify(ctx, s.newEvent(model.EventBookingDisputed, trip, booking, req.Role))
	return &model.BookingResult{TripID: trip.ID, Booking: *booking}, nil
}

func (s *bookingService) Capture(ctx context.Context, req *model.CaptureRequest) (*model.BookingResult, error) {
	return s.adminCapture(ctx, req, model.BookingAuthorized, "captured")
}

func (s *bookingService) ResolveDispute(ctx context.Context, req *model.CaptureRequest) (*model.BookingResult, error) {
	return s.adminCapture(ctx, req, model.BookingDisputed, "resolved")
}

func (s *bookingService) adminCapture(ctx context.Context, req *model.CaptureRequest, from model.BookingStatus, operation string) (*model.BookingResult, error) {
	if err := s.validator.ValidateCapture(req); err != nil {
		return nil, apperrors.Validation("Invalid capture request", map[string]any{"error": err.Error()})
	}
	if err := checkAdminSecret(s.cfg.AdminSecret, req.AdminSecret); err != nil {
		s.cfg.Log.Warn("Rejected admin capture", "trip_id", req.TripID, "order_id", req.OrderID)
		return nil, err
	}

	trip, booking, err := s.mutate(ctx, req.TripID, req.OrderID, transition{
		operation: operation,
		from:      from,
		authorize: func(*model.Trip, *model.Booking) error { return nil },
		apply: func(_ *model.Trip, next *model.Booking, now time.Time) (string, gatewayAction) {
			next.Status = model.BookingCaptured
			next.CapturedAt = &now
			return "capture", s.captureAction()
		},
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, s.newEvent(model.EventBookingCaptured, trip, booking, ""))
	return &model.BookingResult{TripID: trip.ID, Booking: *booking, Captured: true}, nil
}

func (s *bookingService) PaymentStatus(ctx context.Context, req *model.PaymentStatusRequest) (*model.PaymentStatusResult, error) {
	if err := s.validator.ValidatePaymentStatus(req); err != nil {
		return nil, apperrors.Validation("Invalid payment status request", map[string]any{"error": err.Error()})
	}
	if req.AdminSecret != "" {
		if err := checkAdminSecret(s.cfg.AdminSecret, req.AdminSecret); err != nil {
			return nil, err
		}
	}

	trip, err := loadTrip(ctx, s.repo, req.TripID)
	if err != nil {
		return nil, err
	}
	idx := trip.BookingIndex(req.OrderID)
	if idx < 0 {
		return nil, apperrors.NotFoundWithID("Booking", req.OrderID)
	}
	booking := trip.Bookings[idx]
	if req.AdminSecret == "" {
		if err := authorizeParty(trip, &booking, req.UserID); err != nil {
			return nil, err
		}
	}

	auth, err := s.gateway.Retrieve(ctx, booking.PaymentAuthorizationID)
	if err != nil {
		return nil, apperrors.GatewayFailure("retrieve", err)
	}

	return &model.PaymentStatusResult{
		TripID:                 trip.ID,
		OrderID:                booking.OrderID,
		BookingStatus:          booking.Status,
		PaymentAuthorizationID: auth.ID,
		PaymentStatus:          string(auth.Status),
		Amount:                 auth.Amount,
		Currency:               auth.Currency,
		InSync:                 paymentMatchesBooking(booking.Status, auth.Status),
	}, nil
}

func (s *bookingService) validateTransition(req *model.TransitionRequest) error {
	if err := s.validator.ValidateTransition(req); err != nil {
		s.cfg.Log.Warn("Transition validation failed", "error", err)
		return apperrors.Validation("Invalid booking request", map[string]any{"error": err.Error()})
	}
	return nil
}

// paymentMatchesBooking reports whether the processor agrees with the
// booking record. Disputed bookings keep their hold.
func paymentMatchesBooking(status model.BookingStatus, auth payment.AuthorizationStatus) bool {
	switch status {
	case model.BookingAuthorized, model.BookingDisputed:
		return auth == payment.StatusRequiresCapture
	case model.BookingCaptured:
		return auth == payment.StatusCaptured
	case model.BookingCancelled:
		return auth == payment.StatusCancelled
	default:
		return false
	}
}
