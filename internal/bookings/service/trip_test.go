package service

import (
	"context"
	"errors"
	"testing"
	"time"
	"tripshare/internal/bookings/repository"
	"tripshare/internal/bookings/validator"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/model"
)

func newTestTripService(repo *fakeTripRepository) *tripService {
	cfg := newTestConfig()
	svc := NewTripService(repo, newFakeTripLockRepository(), validator.NewBookingValidator(cfg.Log), cfg).(*tripService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validCreateTripRequest() *model.CreateTripRequest {
	return &model.CreateTripRequest{
		DriverID:      testDriverID,
		DriverName:    "  Dana   Driver ",
		DriverEmail:   "Dana@Example.com",
		DepartureCity: "Lyon",
		ArrivalCity:   "Paris",
		Address:       "1 Place Bellecour",
		Date:          "2030-05-01",
		Time:          "08:30",
		PricePerSeat:  1500,
		TotalSeats:    3,
	}
}

func TestTripService_Create(t *testing.T) {
	repo := newFakeTripRepository()
	svc := newTestTripService(repo)

	trip, err := svc.Create(context.Background(), validCreateTripRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if trip.ID == "" {
		t.Fatal("expected ID to be assigned")
	}
	if trip.DepartureCity != "lyon" || trip.ArrivalCity != "paris" {
		t.Errorf("cities = %s, %s", trip.DepartureCity, trip.ArrivalCity)
	}
	if trip.DriverName != "Dana Driver" || trip.DriverEmail != "dana@example.com" {
		t.Errorf("driver = %q %q", trip.DriverName, trip.DriverEmail)
	}
	if !trip.Active || trip.AvailableSeats != 3 || len(trip.Bookings) != 0 {
		t.Errorf("trip = %+v", trip)
	}
}

func TestTripService_CreateRejections(t *testing.T) {
	tests := []struct {
		name   string
		modify func(req *model.CreateTripRequest)
	}{
		{"departure in the past", func(req *model.CreateTripRequest) { req.Date = "2030-04-01" }},
		{"same cities", func(req *model.CreateTripRequest) { req.ArrivalCity = "LYON" }},
		{"no seats", func(req *model.CreateTripRequest) { req.TotalSeats = 0 }},
		{"bad date", func(req *model.CreateTripRequest) { req.Date = "01/05/2030" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestTripService(newFakeTripRepository())
			req := validCreateTripRequest()
			tt.modify(req)

			_, err := svc.Create(context.Background(), req)
			wantCode(t, err, apperrors.CodeInvalidInput)
		})
	}
}

func TestTripService_GetByID(t *testing.T) {
	repo := newFakeTripRepository()
	repo.put(sampleTrip())
	svc := newTestTripService(repo)

	if _, err := svc.GetByID(context.Background(), testTripID); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	_, err := svc.GetByID(context.Background(), "64b7f0c2a1b2c3d4e5f60000")
	wantCode(t, err, apperrors.CodeNotFound)

	_, err = svc.GetByID(context.Background(), "bad")
	wantCode(t, err, apperrors.CodeInvalidInput)
}

func TestTripService_GetAll(t *testing.T) {
	repo := newFakeTripRepository()
	var gotFilter repository.TripFilter
	repo.findAllFunc = func(filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, error) {
		gotFilter = filter
		return []*model.Trip{sampleTrip()}, nil
	}
	repo.put(sampleTrip())
	svc := newTestTripService(repo)

	trips, total, err := svc.GetAll(context.Background(), repository.TripFilter{DepartureCity: " Lyon ", ActiveOnly: true}, 10, 0)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(trips) != 1 || total != 1 {
		t.Errorf("trips = %d total = %d", len(trips), total)
	}
	if gotFilter.DepartureCity != "lyon" || !gotFilter.ActiveOnly {
		t.Errorf("filter = %+v", gotFilter)
	}

	repo.countErr = errors.New("count failed")
	_, _, err = svc.GetAll(context.Background(), repository.TripFilter{}, 10, 0)
	wantCode(t, err, apperrors.CodeInternal)
}

func TestTripService_Deactivate(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTripService(env.repo, env.locks, validator.NewBookingValidator(env.cfg.Log), env.cfg)
	ctx := context.Background()
	booking := env.book(t, "passenger-1", 1)

	_, err := svc.Deactivate(ctx, testTripID, &model.DeactivateTripRequest{UserID: "passenger-1"})
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = svc.Deactivate(ctx, testTripID, &model.DeactivateTripRequest{UserID: testDriverID})
	wantCode(t, err, apperrors.CodeConflict)

	if _, err := env.svc.Cancel(ctx, transitionRequest(booking.OrderID, "passenger-1", model.RolePassenger)); err != nil {
		t.Fatal(err)
	}

	trip, err := svc.Deactivate(ctx, testTripID, &model.DeactivateTripRequest{UserID: testDriverID})
	if err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if trip.Active {
		t.Error("trip still active")
	}

	// Repeating the call is a no-op.
	if _, err := svc.Deactivate(ctx, testTripID, &model.DeactivateTripRequest{UserID: testDriverID}); err != nil {
		t.Fatalf("second Deactivate() error = %v", err)
	}

	_, err = env.svc.Book(ctx, bookRequest("passenger-2", 1))
	wantCode(t, err, apperrors.CodeConflict)
}
