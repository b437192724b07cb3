package directory

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"serenity/pkg/config"
	"serenity/pkg/model"
)

const EmployeeCollectionName = "Employees"

// Outcome names the booking event an employee's counters record.
type Outcome string

const (
	OutcomeBooked    Outcome = "booked"
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
)

type EmployeeDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
	RecordBookingOutcome(ctx context.Context, id string, outcome Outcome, revenue int64, at time.Time) error
}

type mongoEmployeeDirectory struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEmployeeDirectory(cfg *config.Config) EmployeeDirectory {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoEmployeeDirectory{
		cfg:        cfg,
		collection: db.Collection(EmployeeCollectionName),
	}
}

// Exists reports whether an active employee with the given ID exists.
func (d *mongoEmployeeDirectory) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	count, err := d.collection.CountDocuments(ctx, bson.M{
		"_id":    objectID,
		"status": model.EmployeeActive,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check employee existence: %w", err)
	}
	return count > 0, nil
}

func (d *mongoEmployeeDirectory) RecordBookingOutcome(ctx context.Context, id string, outcome Outcome, revenue int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	inc := bson.M{}
	set := bson.M{"last_booking_date": at}
	switch outcome {
	case OutcomeBooked:
		inc["total_bookings"] = 1
	case OutcomeCompleted:
		inc["completed_bookings"] = 1
		inc["total_revenue"] = revenue
	case OutcomeCancelled:
		inc["cancelled_bookings"] = 1
	default:
		return fmt.Errorf("unknown booking outcome: %s", outcome)
	}

	result, err := d.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": inc, "$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to record booking outcome: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
