package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/model"

	"golang.org/x/sync/errgroup"
)

func (s *bookingService) AutoCapture(ctx context.Context, adminSecret string) (*model.SweepReport, error) {
	if err := checkAdminSecret(s.cfg.AdminSecret, adminSecret); err != nil {
		s.cfg.Log.Warn("Rejected auto-capture request")
		return nil, err
	}
	return s.sweep(ctx)
}

// tripSweep is the outcome of sweeping one trip.
type tripSweep struct {
	eligible bool
	captured []string
	failures []model.SweepFailure
}

// sweep captures every authorized booking of every active trip whose
// departure plus the grace period has passed. Per-trip and per-booking
// failures are reported, never returned. The run ignores the caller's
// cancellation; SweepTimeout alone bounds it.
func (s *bookingService) sweep(ctx context.Context) (*model.SweepReport, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SweepTimeout)
	defer cancel()

	now := s.now().UTC()
	report := &model.SweepReport{
		CapturedIDs:  []string{},
		ErrorDetails: []model.SweepFailure{},
		StartedAt:    now,
	}

	trips, err := s.repo.FindActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Auto-capture failed to load active trips", "error", err)
		return nil, apperrors.Internal("Failed to load active trips", err)
	}
	report.TripsScanned = len(trips)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.SweepTripConcurrency)
	for _, trip := range trips {
		g.Go(func() error {
			result := s.sweepTrip(ctx, trip, now)
			mu.Lock()
			defer mu.Unlock()
			if result.eligible {
				report.TripsEligible++
			}
			report.CapturedIDs = append(report.CapturedIDs, result.captured...)
			report.ErrorDetails = append(report.ErrorDetails, result.failures...)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.CapturedIDs)
	sort.Slice(report.ErrorDetails, func(i, j int) bool {
		a, b := report.ErrorDetails[i], report.ErrorDetails[j]
		if a.TripID != b.TripID {
			return a.TripID < b.TripID
		}
		return a.OrderID < b.OrderID
	})
	report.Captured = len(report.CapturedIDs)
	report.Errors = len(report.ErrorDetails)
	report.Success = true
	report.FinishedAt = s.now().UTC()

	s.cfg.Log.Info("Auto-capture run finished",
		"trips_scanned", report.TripsScanned,
		"trips_eligible", report.TripsEligible,
		"captured", report.Captured,
		"errors", report.Errors,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (s *bookingService) sweepTrip(ctx context.Context, candidate *model.Trip, now time.Time) tripSweep {
	var result tripSweep

	departure, err := candidate.DepartureTime(s.cfg.TripLocation)
	if err != nil {
		s.cfg.Log.Error("Skipping trip with invalid departure", "trip_id", candidate.ID, "error", err)
		result.failures = append(result.failures, tripFailure(candidate.ID, "", apperrors.Internal("Trip has an invalid departure", err)))
		return result
	}
	if now.Before(departure.Add(s.cfg.CaptureGracePeriod)) || !candidate.HasAuthorizedBookings() {
		return result
	}
	result.eligible = true

	release, err := s.locker.acquire(ctx, candidate.ID)
	if err != nil {
		result.failures = append(result.failures, tripFailure(candidate.ID, "", err))
		return result
	}
	defer release()

	// Re-read under the lock; the candidate may be stale.
	trip, err := loadTrip(ctx, s.repo, candidate.ID)
	if err != nil {
		result.failures = append(result.failures, tripFailure(candidate.ID, "", err))
		return result
	}

	var pending []int
	for i := range trip.Bookings {
		if trip.Bookings[i].IsAuthorized() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return result
	}

	captureErrs := make([]error, len(pending))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.SweepCaptureConcurrency)
	for slot, idx := range pending {
		authorizationID := trip.Bookings[idx].PaymentAuthorizationID
		g.Go(func() error {
			captureErrs[slot] = s.gateway.Capture(ctx, authorizationID)
			return nil
		})
	}
	_ = g.Wait()

	capturedAt := s.now().UTC()
	bookings := make([]model.Booking, len(trip.Bookings))
	copy(bookings, trip.Bookings)
	var captured []*model.Booking
	for slot, idx := range pending {
		booking := &bookings[idx]
		if err := captureErrs[slot]; err != nil {
			s.cfg.Log.Error("Auto-capture failed for booking",
				"trip_id", trip.ID,
				"order_id", booking.OrderID,
				"payment_authorization_id", booking.PaymentAuthorizationID,
				"error", err,
			)
			result.failures = append(result.failures, tripFailure(trip.ID, booking.OrderID, apperrors.GatewayFailure("capture", err)))
			continue
		}
		stamp := capturedAt
		booking.Status = model.BookingCaptured
		booking.CapturedAt = &stamp
		captured = append(captured, booking)
	}
	if len(captured) == 0 {
		return result
	}

	trip.Bookings = bookings
	if err := s.repo.UpdateBookingState(context.WithoutCancel(ctx), trip); err != nil {
		for _, booking := range captured {
			result.failures = append(result.failures, tripFailure(trip.ID, booking.OrderID, s.reconciliation(ctx, trip, booking, "capture", err)))
		}
		return result
	}
	release()

	for _, booking := range captured {
		result.captured = append(result.captured, fmt.Sprintf("%s:%s", trip.ID, booking.OrderID))
		s.notify(ctx, s.newEvent(model.EventBookingCaptured, trip, booking, ""))
	}
	return result
}

func tripFailure(tripID, orderID string, err error) model.SweepFailure {
	appErr := apperrors.AsAppError(err)
	return model.SweepFailure{
		TripID:  tripID,
		OrderID: orderID,
		Code:    appErr.Code,
		Message: appErr.Message,
	}
}
