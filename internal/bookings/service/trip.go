package service

import (
	"context"
	"errors"
	"sync"
	"time"
	bookingserrors "tripshare/internal/bookings/errors"
	"tripshare/internal/bookings/repository"
	"tripshare/internal/bookings/validator"
	"tripshare/pkg/config"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/model"
	"tripshare/pkg/sanitizer"
)

type TripService interface {
	Create(ctx context.Context, req *model.CreateTripRequest) (*model.Trip, error)
	GetByID(ctx context.Context, id string) (*model.Trip, error)
	GetAll(ctx context.Context, filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, int64, error)
	Deactivate(ctx context.Context, id string, req *model.DeactivateTripRequest) (*model.Trip, error)
}

type tripService struct {
	repo      repository.TripRepository
	locker    *tripLocker
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewTripService(
	repo repository.TripRepository,
	lockRepo repository.TripLockRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
) TripService {
	return &tripService{
		repo:      repo,
		locker:    newTripLocker(lockRepo, cfg),
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *tripService) Create(ctx context.Context, req *model.CreateTripRequest) (*model.Trip, error) {
	sanitizeTripRequest(req)
	if err := s.validator.ValidateCreateTrip(req); err != nil {
		s.cfg.Log.Warn("Trip validation failed", "error", err)
		return nil, apperrors.Validation("Trip validation failed", map[string]any{"error": err.Error()})
	}

	trip := &model.Trip{
		DriverID:       req.DriverID,
		DriverName:     req.DriverName,
		DriverEmail:    req.DriverEmail,
		DepartureCity:  req.DepartureCity,
		ArrivalCity:    req.ArrivalCity,
		Address:        req.Address,
		Date:           req.Date,
		Time:           req.Time,
		PricePerSeat:   req.PricePerSeat,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		Active:         true,
		Participants:   []string{},
		Bookings:       []model.Booking{},
	}

	departure, err := trip.DepartureTime(s.cfg.TripLocation)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid departure date or time")
	}
	if !departure.After(s.now()) {
		return nil, apperrors.InvalidInput("Departure must be in the future")
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		s.cfg.Log.Error("Failed to create trip", "driver_id", trip.DriverID, "error", err)
		return nil, apperrors.Internal("Failed to create trip", err)
	}

	s.cfg.Log.Info("Trip created successfully",
		"id", trip.ID,
		"driver_id", trip.DriverID,
		"departure_city", trip.DepartureCity,
		"arrival_city", trip.ArrivalCity,
		"departure", departure,
	)
	return trip, nil
}

func (s *tripService) GetByID(ctx context.Context, id string) (*model.Trip, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Trip ID cannot be empty")
	}
	return loadTrip(ctx, s.repo, id)
}

func (s *tripService) GetAll(ctx context.Context, filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, int64, error) {
	filter.DepartureCity = sanitizer.SanitizeCity(filter.DepartureCity)
	filter.ArrivalCity = sanitizer.SanitizeCity(filter.ArrivalCity)

	var count int64
	var trips []*model.Trip
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count trips", "error", errCount)
			errCount = apperrors.Internal("Failed to count trips", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		trips, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list trips", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve trips", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return trips, count, nil
}

func (s *tripService) Deactivate(ctx context.Context, id string, req *model.DeactivateTripRequest) (*model.Trip, error) {
	if err := s.validator.ValidateDeactivate(req); err != nil {
		return nil, apperrors.Validation("Invalid deactivation request", map[string]any{"error": err.Error()})
	}

	release, err := s.locker.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	trip, err := loadTrip(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != req.UserID {
		return nil, apperrors.Forbidden("Only the trip driver can deactivate the trip")
	}
	if !trip.Active {
		return trip, nil
	}
	if trip.HasAuthorizedBookings() {
		return nil, apperrors.Conflict("Trip still holds authorized payments")
	}

	if err := s.repo.SetActive(ctx, trip, false); err != nil {
		return nil, translateWriteError("Failed to deactivate trip", err)
	}

	s.cfg.Log.Info("Trip deactivated", "id", trip.ID, "driver_id", trip.DriverID)
	return trip, nil
}

func sanitizeTripRequest(req *model.CreateTripRequest) {
	req.DriverName = sanitizer.SanitizeName(req.DriverName)
	req.DriverEmail = sanitizer.SanitizeEmail(req.DriverEmail)
	req.DepartureCity = sanitizer.SanitizeCity(req.DepartureCity)
	req.ArrivalCity = sanitizer.SanitizeCity(req.ArrivalCity)
	req.Address = sanitizer.SanitizeAddress(req.Address)
}

func loadTrip(ctx context.Context, repo repository.TripRepository, id string) (*model.Trip, error) {
	trip, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Trip", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid trip ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve trip", err)
	}
	return trip, nil
}

func translateWriteError(message string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrVersionConflict):
		return apperrors.Conflict("Trip was modified concurrently. Please try again.")
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFound("Trip")
	default:
		return apperrors.Internal(message, err)
	}
}
