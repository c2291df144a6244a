package repository

import (
	"context"
	"time"
	"tripshare/pkg/config"
	"tripshare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	TripLocksCollection = "Trip_locks"
)

// TripLockRepository persists advisory per-trip locks. A TTL index on
// expires_at reaps locks left behind by crashed holders.
type TripLockRepository interface {
	// Create returns a duplicate key error if the lock is already held.
	Create(ctx context.Context, lock *model.TripLock) (*model.TripLock, error)
	// Delete removes the lock only if owner still holds it.
	Delete(ctx context.Context, lockID, owner string) error
	// DeleteExpired removes the lock if its expiry has passed.
	DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error)
}

type mongoTripLockRepository struct {
	collection *mongo.Collection
}

func NewTripLockRepository(cfg *config.Config) TripLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTripLockRepository{
		collection: db.Collection(TripLocksCollection),
	}
}

func (r *mongoTripLockRepository) Create(ctx context.Context, lock *model.TripLock) (*model.TripLock, error) {
	lock.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		return nil, err
	}
	return lock, nil
}

func (r *mongoTripLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}

func (r *mongoTripLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lockID,
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
