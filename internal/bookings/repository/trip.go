package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
	bookingserrors "tripshare/internal/bookings/errors"
	"tripshare/pkg/config"
	"tripshare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TripsCollection = "Trips"
)

// TripFilter narrows ListTrips. Empty fields match everything.
type TripFilter struct {
	DepartureCity string
	ArrivalCity   string
	Date          string
	DriverID      string
	ActiveOnly    bool
}

type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) error
	FindByID(ctx context.Context, id string) (*model.Trip, error)
	FindAll(ctx context.Context, filter TripFilter, limit int, offset int64) ([]*model.Trip, error)
	Count(ctx context.Context, filter TripFilter) (int64, error)
	// FindActive returns every active trip holding at least one authorized booking.
	FindActive(ctx context.Context) ([]*model.Trip, error)
	// UpdateBookingState writes bookings, participants and seat count in a
	// single document update guarded by the trip version. On success the
	// trip's Version and UpdatedAt are advanced in place.
	UpdateBookingState(ctx context.Context, trip *model.Trip) error
	SetActive(ctx context.Context, trip *model.Trip, active bool) error
}

type mongoTripRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTripRepository(cfg *config.Config) TripRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTripRepository{
		cfg:        cfg,
		collection: db.Collection(TripsCollection),
	}
}

// withTimeout never extends a deadline the caller already set.
func (r *mongoTripRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTripRepository) Create(ctx context.Context, trip *model.Trip) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	trip.CreatedAt = now
	trip.UpdatedAt = now
	if trip.Bookings == nil {
		trip.Bookings = []model.Booking{}
	}
	if trip.Participants == nil {
		trip.Participants = []string{}
	}

	result, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		trip.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTripRepository) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var trip model.Trip
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}

	return &trip, nil
}

func (r *mongoTripRepository) FindAll(ctx context.Context, filter TripFilter, limit int, offset int64) ([]*model.Trip, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildTripFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*model.Trip
	if err = cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}

	return trips, nil
}

func (r *mongoTripRepository) Count(ctx context.Context, filter TripFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildTripFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}

func (r *mongoTripRepository) FindActive(ctx context.Context) ([]*model.Trip, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"active":          true,
		"bookings.status": model.BookingAuthorized,
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find active trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*model.Trip
	if err = cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode active trips: %w", err)
	}
	return trips, nil
}

func (r *mongoTripRepository) UpdateBookingState(ctx context.Context, trip *model.Trip) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(trip.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, trip.ID)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": objectID, "version": trip.Version}
	update := bson.M{
		"$set": bson.M{
			"bookings":        trip.Bookings,
			"participants":    trip.Participants,
			"available_seats": trip.AvailableSeats,
			"updated_at":      now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update trip bookings: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, objectID)
	}

	trip.Version++
	trip.UpdatedAt = now
	return nil
}

func (r *mongoTripRepository) SetActive(ctx context.Context, trip *model.Trip, active bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(trip.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, trip.ID)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "version": trip.Version},
		bson.M{
			"$set": bson.M{"active": active, "updated_at": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update trip status: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, objectID)
	}

	trip.Active = active
	trip.Version++
	trip.UpdatedAt = now
	return nil
}

func (r *mongoTripRepository) missOrConflict(ctx context.Context, objectID primitive.ObjectID) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check trip existence: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrVersionConflict
}

func buildTripFilter(f TripFilter) bson.M {
	filter := bson.M{}
	if f.DepartureCity != "" {
		filter["departure_city"] = f.DepartureCity
	}
	if f.ArrivalCity != "" {
		filter["arrival_city"] = f.ArrivalCity
	}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.DriverID != "" {
		filter["driver_id"] = f.DriverID
	}
	if f.ActiveOnly {
		filter["active"] = true
	}
	return filter
}
