package repository

import (
	"context"
	"errors"
	"testing"
	"time"
	bookingserrors "tripshare/internal/bookings/errors"
	"tripshare/pkg/config"
	"tripshare/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testTripHex = "64b7f0c2a1b2c3d4e5f60718"

func newMockTripRepository(mt *mtest.T) *mongoTripRepository {
	return &mongoTripRepository{
		cfg:        &config.Config{WriteTimeout: time.Second, ReadTimeout: time.Second},
		collection: mt.Coll,
	}
}

func countResponse(mt *mtest.T, n int) bson.D {
	ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func TestUpdateBookingState(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matches on id and version", func(mt *mtest.T) {
		repo := newMockTripRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		trip := &model.Trip{ID: testTripHex, Version: 3, AvailableSeats: 2}
		if err := repo.UpdateBookingState(context.Background(), trip); err != nil {
			mt.Fatalf("UpdateBookingState() error = %v", err)
		}
		if trip.Version != 4 || trip.UpdatedAt.IsZero() {
			mt.Errorf("trip version = %d updated_at = %v", trip.Version, trip.UpdatedAt)
		}

		started := mt.GetStartedEvent()
		if started == nil || started.CommandName != "update" {
			mt.Fatalf("started event = %+v", started)
		}
		statement := started.Command.Lookup("updates").Array().Index(0).Value().Document()

		query := statement.Lookup("q").Document()
		wantID, _ := primitive.ObjectIDFromHex(testTripHex)
		if got := query.Lookup("_id").ObjectID(); got != wantID {
			mt.Errorf("filter _id = %s", got.Hex())
		}
		if got := query.Lookup("version").AsInt64(); got != 3 {
			mt.Errorf("filter version = %d, want 3", got)
		}

		update := statement.Lookup("u").Document()
		if got := update.Lookup("$inc", "version").AsInt64(); got != 1 {
			mt.Errorf("$inc version = %d, want 1", got)
		}
		if got := update.Lookup("$set", "available_seats").AsInt64(); got != 2 {
			mt.Errorf("$set available_seats = %d", got)
		}
	})

	tests := []struct {
		name    string
		count   int
		wantErr error
	}{
		{name: "missing trip", count: 0, wantErr: bookingserrors.ErrNotFound},
		{name: "stale version", count: 1, wantErr: bookingserrors.ErrVersionConflict},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			repo := newMockTripRepository(mt)
			mt.AddMockResponses(
				mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
				countResponse(mt, tt.count),
			)

			trip := &model.Trip{ID: testTripHex, Version: 7}
			err := repo.UpdateBookingState(context.Background(), trip)
			if !errors.Is(err, tt.wantErr) {
				mt.Fatalf("UpdateBookingState() error = %v, want %v", err, tt.wantErr)
			}
			if trip.Version != 7 {
				mt.Errorf("version advanced to %d on a failed write", trip.Version)
			}
		})
	}

	mt.Run("invalid id never reaches the server", func(mt *mtest.T) {
		repo := newMockTripRepository(mt)
		err := repo.UpdateBookingState(context.Background(), &model.Trip{ID: "not-hex"})
		if !errors.Is(err, bookingserrors.ErrInvalidID) {
			mt.Fatalf("error = %v", err)
		}
		if started := mt.GetStartedEvent(); started != nil {
			mt.Errorf("unexpected command %s", started.CommandName)
		}
	})
}

func TestSetActive_VersionConflict(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stale version", func(mt *mtest.T) {
		repo := newMockTripRepository(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			countResponse(mt, 1),
		)

		trip := &model.Trip{ID: testTripHex, Version: 2, Active: true}
		err := repo.SetActive(context.Background(), trip, false)
		if !errors.Is(err, bookingserrors.ErrVersionConflict) {
			mt.Fatalf("SetActive() error = %v", err)
		}
		if !trip.Active || trip.Version != 2 {
			mt.Errorf("trip changed on conflict: %+v", trip)
		}
	})
}
