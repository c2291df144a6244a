package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	bookingserrors "tripshare/internal/bookings/errors"
	"tripshare/internal/bookings/repository"
	"tripshare/internal/bookings/validator"
	"tripshare/pkg/config"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/logger"
	"tripshare/pkg/model"
	"tripshare/pkg/payment"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testTripID      = "64b7f0c2a1b2c3d4e5f60718"
	testDriverID    = "driver-1"
	testAdminSecret = "super-secret-admin-key"
)

var testNow = time.Date(2030, 4, 20, 12, 0, 0, 0, time.UTC)

// fakeTripRepository stores trips in memory and enforces the same version
// check as the Mongo implementation. Reads return deep copies.
type fakeTripRepository struct {
	mu    sync.Mutex
	trips map[string]*model.Trip

	updateErr     func(trip *model.Trip) error
	findActiveErr error
	countErr      error
	findAllFunc   func(filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, error)
	writes        int
}

func newFakeTripRepository() *fakeTripRepository {
	return &fakeTripRepository{trips: make(map[string]*model.Trip)}
}

func cloneTrip(t *model.Trip) *model.Trip {
	c := *t
	c.Bookings = append([]model.Booking{}, t.Bookings...)
	c.Participants = append([]string{}, t.Participants...)
	return &c
}

func (r *fakeTripRepository) put(trip *model.Trip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[trip.ID] = cloneTrip(trip)
}

func (r *fakeTripRepository) get(t *testing.T, id string) *model.Trip {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		t.Fatalf("trip %s not stored", id)
	}
	return cloneTrip(trip)
}

func (r *fakeTripRepository) Create(_ context.Context, trip *model.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trip.ID == "" {
		trip.ID = testTripID
	}
	trip.CreatedAt = testNow
	trip.UpdatedAt = testNow
	r.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (r *fakeTripRepository) FindByID(_ context.Context, id string) (*model.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(id) != 24 {
		return nil, bookingserrors.ErrInvalidID
	}
	trip, ok := r.trips[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneTrip(trip), nil
}

func (r *fakeTripRepository) FindAll(_ context.Context, filter repository.TripFilter, limit int, offset int64) ([]*model.Trip, error) {
	if r.findAllFunc != nil {
		return r.findAllFunc(filter, limit, offset)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var trips []*model.Trip
	for _, trip := range r.trips {
		trips = append(trips, cloneTrip(trip))
	}
	return trips, nil
}

func (r *fakeTripRepository) Count(_ context.Context, _ repository.TripFilter) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.trips)), nil
}

func (r *fakeTripRepository) FindActive(_ context.Context) ([]*model.Trip, error) {
	if r.findActiveErr != nil {
		return nil, r.findActiveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var trips []*model.Trip
	for _, trip := range r.trips {
		if trip.Active && trip.HasAuthorizedBookings() {
			trips = append(trips, cloneTrip(trip))
		}
	}
	return trips, nil
}

func (r *fakeTripRepository) UpdateBookingState(_ context.Context, trip *model.Trip) error {
	if r.updateErr != nil {
		if err := r.updateErr(trip); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trips[trip.ID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if stored.Version != trip.Version {
		return bookingserrors.ErrVersionConflict
	}
	trip.Version++
	trip.UpdatedAt = testNow
	r.trips[trip.ID] = cloneTrip(trip)
	r.writes++
	return nil
}

func (r *fakeTripRepository) SetActive(_ context.Context, trip *model.Trip, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trips[trip.ID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if stored.Version != trip.Version {
		return bookingserrors.ErrVersionConflict
	}
	stored.Active = active
	stored.Version++
	trip.Active = active
	trip.Version++
	r.writes++
	return nil
}

type fakeTripLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.TripLock
}

func newFakeTripLockRepository() *fakeTripLockRepository {
	return &fakeTripLockRepository{locks: make(map[string]model.TripLock)}
}

func (r *fakeTripLockRepository) Create(_ context.Context, lock *model.TripLock) (*model.TripLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.locks[lock.ID]; held {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}
	}
	r.locks[lock.ID] = *lock
	return lock, nil
}

func (r *fakeTripLockRepository) Delete(_ context.Context, lockID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[lockID]; ok && lock.Owner == owner {
		delete(r.locks, lockID)
	}
	return nil
}

func (r *fakeTripLockRepository) DeleteExpired(_ context.Context, lockID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock, ok := r.locks[lockID]; ok && !lock.ExpiresAt.After(now) {
		delete(r.locks, lockID)
		return true, nil
	}
	return false, nil
}

func (r *fakeTripLockRepository) held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// fakeGateway wraps the in-memory gateway with injectable failures.
type fakeGateway struct {
	*payment.MockGateway

	mu           sync.Mutex
	authorized   []string
	authorizeErr error
	captureErr   func(authorizationID string) error
	cancelErr    func(authorizationID string) error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{MockGateway: payment.NewMockGateway()}
}

func (g *fakeGateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (*payment.Authorization, error) {
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	auth, err := g.MockGateway.Authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.authorized = append(g.authorized, auth.ID)
	g.mu.Unlock()
	return auth, nil
}

func (g *fakeGateway) Capture(ctx context.Context, authorizationID string) error {
	if g.captureErr != nil {
		if err := g.captureErr(authorizationID); err != nil {
			return err
		}
	}
	// A network client gives up once its context is done.
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.MockGateway.Capture(ctx, authorizationID)
}

func (g *fakeGateway) Cancel(ctx context.Context, authorizationID string) error {
	if g.cancelErr != nil {
		if err := g.cancelErr(authorizationID); err != nil {
			return err
		}
	}
	return g.MockGateway.Cancel(ctx, authorizationID)
}

func (g *fakeGateway) status(t *testing.T, authorizationID string) payment.AuthorizationStatus {
	t.Helper()
	auth, err := g.MockGateway.Retrieve(context.Background(), authorizationID)
	if err != nil {
		t.Fatalf("retrieve %s: %v", authorizationID, err)
	}
	return auth.Status
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func (p *recordingPublisher) has(eventType model.EventType) bool {
	for _, t := range p.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

type testEnv struct {
	cfg     *config.Config
	repo    *fakeTripRepository
	locks   *fakeTripLockRepository
	gateway *fakeGateway
	events  *recordingPublisher
	svc     *bookingService
}

func newTestConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:                     log,
		ReadTimeout:             5 * time.Second,
		WriteTimeout:            5 * time.Second,
		AdminSecret:             testAdminSecret,
		PaymentCurrency:         "usd",
		CaptureGracePeriod:      24 * time.Hour,
		TripLocation:            time.UTC,
		SweepTripConcurrency:    2,
		SweepCaptureConcurrency: 2,
		SweepTimeout:            time.Minute,
		TripLockTTL:             30 * time.Second,
		TripLockAttempts:        3,
		TripLockRetryDelay:      time.Millisecond,
		NotifyTimeout:           time.Second,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := newTestConfig()
	env := &testEnv{
		cfg:     cfg,
		repo:    newFakeTripRepository(),
		locks:   newFakeTripLockRepository(),
		gateway: newFakeGateway(),
		events:  &recordingPublisher{},
	}
	v := validator.NewBookingValidator(cfg.Log)
	env.svc = NewBookingService(env.repo, env.locks, env.gateway, env.events, v, cfg).(*bookingService)
	env.svc.now = func() time.Time { return testNow }
	env.repo.put(sampleTrip())
	return env
}

func sampleTrip() *model.Trip {
	return &model.Trip{
		ID:             testTripID,
		DriverID:       testDriverID,
		DriverName:     "Dana Driver",
		DriverEmail:    "dana@example.com",
		DepartureCity:  "lyon",
		ArrivalCity:    "paris",
		Address:        "1 Place Bellecour",
		Date:           "2030-05-01",
		Time:           "08:30",
		PricePerSeat:   1500,
		TotalSeats:     3,
		AvailableSeats: 3,
		Participants:   []string{},
		Bookings:       []model.Booking{},
		Active:         true,
	}
}

func bookRequest(userID string, seats int) *model.BookRequest {
	return &model.BookRequest{
		TripID:          testTripID,
		UserID:          userID,
		PassengerName:   "Pat Passenger",
		PassengerEmail:  "pat@example.com",
		Seats:           seats,
		PaymentMethodID: "pm_card_visa",
	}
}

func (e *testEnv) book(t *testing.T, userID string, seats int) model.Booking {
	t.Helper()
	result, err := e.svc.Book(context.Background(), bookRequest(userID, seats))
	if err != nil {
		t.Fatalf("Book(%s) error = %v", userID, err)
	}
	return result.Booking
}

func transitionRequest(orderID, userID string, role model.Role) *model.TransitionRequest {
	return &model.TransitionRequest{
		TripID:  testTripID,
		OrderID: orderID,
		UserID:  userID,
		Role:    role,
	}
}

// afterDeparture moves the clock past departure and the grace period.
func (e *testEnv) afterDeparture() {
	later := time.Date(2030, 5, 2, 9, 0, 0, 0, time.UTC)
	e.svc.now = func() time.Time { return later }
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

var errWriteFailed = errors.New("write failed")
