package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"serenity/pkg/config"
	"serenity/pkg/model"
)

const CollectionName = "Users"

// Ledger is the loyalty point store. All balance mutations are single
// atomic document updates so concurrent debits can never overdraw.
type Ledger interface {
	AddPoints(ctx context.Context, userID string, points int64) (*model.User, error)
	UsePoints(ctx context.Context, userID string, points int64) error
	RecordCompletedBooking(ctx context.Context, userID string, amount int64, at time.Time) error
}

type mongoLedger struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLedger(cfg *config.Config) Ledger {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoLedger{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (l *mongoLedger) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// AddPoints credits the balance and upgrades the membership tier when the
// new balance crosses a threshold. Tiers never move down.
func (l *mongoLedger) AddPoints(ctx context.Context, userID string, points int64) (*model.User, error) {
	ctx, cancel := l.withTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUserID, userID)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user model.User
	err = l.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"loyalty_points": points}},
		opts,
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to add loyalty points: %w", err)
	}

	if next := TierForPoints(user.LoyaltyPoints); Outranks(next, user.MembershipTier) {
		_, err = l.collection.UpdateOne(ctx,
			bson.M{"_id": objectID, "membership_tier": user.MembershipTier},
			bson.M{"$set": bson.M{"membership_tier": next}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upgrade membership tier: %w", err)
		}
		user.MembershipTier = next
	}

	return &user, nil
}

// UsePoints debits the balance only when it covers the requested amount.
// The balance guard lives in the update filter, so two concurrent debits
// can never take the account negative.
func (l *mongoLedger) UsePoints(ctx context.Context, userID string, points int64) error {
	ctx, cancel := l.withTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUserID, userID)
	}

	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "loyalty_points": bson.M{"$gte": points}},
		bson.M{"$inc": bson.M{"loyalty_points": -points}},
	)
	if err != nil {
		return fmt.Errorf("failed to use loyalty points: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := l.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrInsufficientPoints
	}

	return nil
}

func (l *mongoLedger) RecordCompletedBooking(ctx context.Context, userID string, amount int64, at time.Time) error {
	ctx, cancel := l.withTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUserID, userID)
	}

	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$inc": bson.M{"total_bookings": 1, "total_spent": amount},
			"$set": bson.M{"last_booking_date": at},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to record completed booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	_, err = l.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "first_booking_date": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"first_booking_date": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to record first booking date: %w", err)
	}

	return nil
}
