package service

import (
	"context"
	"fmt"
	"sync"
	"time"
	"tripshare/internal/bookings/repository"
	"tripshare/pkg/config"
	apperrors "tripshare/pkg/errors"
	"tripshare/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const lockReleaseTimeout = 5 * time.Second

// tripLocker serializes writers of one trip's booking list across
// processes. The version check in the repository still guards the write
// if a lock expires while held.
type tripLocker struct {
	repo repository.TripLockRepository
	cfg  *config.Config
}

func newTripLocker(repo repository.TripLockRepository, cfg *config.Config) *tripLocker {
	return &tripLocker{repo: repo, cfg: cfg}
}

func tripLockID(tripID string) string {
	return fmt.Sprintf("trip_lock_%s", tripID)
}

// acquire returns a release func that must always be called. Calling it
// more than once is safe.
func (l *tripLocker) acquire(ctx context.Context, tripID string) (func(), error) {
	lockID := tripLockID(tripID)
	owner := uuid.NewString()

	for attempt := 1; attempt <= l.cfg.TripLockAttempts; attempt++ {
		lock := &model.TripLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: time.Now().UTC().Add(l.cfg.TripLockTTL),
		}

		_, err := l.repo.Create(ctx, lock)
		if err == nil {
			var once sync.Once
			return func() { once.Do(func() { l.release(ctx, lockID, owner) }) }, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Internal("Failed to acquire trip lock", err)
		}

		// The TTL monitor runs about once a minute; reclaim stale locks eagerly.
		reclaimed, delErr := l.repo.DeleteExpired(ctx, lockID, time.Now().UTC())
		if delErr != nil {
			l.cfg.Log.Warn("Failed to reclaim expired trip lock", "lock_id", lockID, "error", delErr)
		}
		if reclaimed {
			continue
		}

		if attempt == l.cfg.TripLockAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, apperrors.Conflict("Trip is being modified by another request. Please try again.")
		case <-time.After(l.cfg.TripLockRetryDelay):
		}
	}

	l.cfg.Log.Warn("Trip lock contention", "trip_id", tripID, "attempts", l.cfg.TripLockAttempts)
	return nil, apperrors.Conflict("Trip is being modified by another request. Please try again.")
}

func (l *tripLocker) release(ctx context.Context, lockID, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()

	if err := l.repo.Delete(ctx, lockID, owner); err != nil {
		l.cfg.Log.Warn("Failed to release trip lock", "lock_id", lockID, "error", err)
	}
}
