package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "serenity/internal/bookings/errors"
	"serenity/pkg/config"
	mongotx "serenity/pkg/db/mongo"
	"serenity/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// Filter narrows list queries. Zero values mean "no constraint".
type Filter struct {
	Customer string
	Status   model.BookingStatus
	Phone    string
	DateFrom *time.Time
	DateTo   *time.Time
}

type BookingRepository interface {
	// Insert persists a new booking. A booking-code collision with the
	// unique index surfaces as ErrDuplicateCode so the caller can retry
	// with a fresh code.
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	FindAll(ctx context.Context, f Filter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, f Filter) (int64, error)

	// UpdateStatus moves the booking from one status to another. The
	// expected current status sits in the filter, so a concurrent writer
	// makes this a no-op and the caller learns via the false return.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, change model.StatusChange) (bool, error)
	RecordCancellation(ctx context.Context, id string, from model.BookingStatus, fee int64, reason, by string, at time.Time) (bool, error)
	// MarkPointsAwarded flips the points_awarded flag exactly once per
	// completed booking.
	MarkPointsAwarded(ctx context.Context, id string, points int64) (bool, error)

	SetOtp(ctx context.Context, id, code string, expiresAt time.Time) (bool, error)
	IncrementOtpAttempts(ctx context.Context, id string) error
	ConfirmOtp(ctx context.Context, id string, change model.StatusChange) (bool, error)

	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateCode, booking.BookingCode)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"booking_code": code}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by code: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, f Filter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "booking_date", Value: 1}, {Key: "booking_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, f Filter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func buildFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Customer != "" {
		filter["customer"] = f.Customer
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Phone != "" {
		filter["guest_info.phone"] = f.Phone
	}
	if f.DateFrom != nil || f.DateTo != nil {
		dateFilter := bson.M{}
		if f.DateFrom != nil {
			dateFilter["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			dateFilter["$lt"] = *f.DateTo
		}
		filter["booking_date"] = dateFilter
	}
	return filter
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, change model.StatusChange) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": from},
		bson.M{
			"$set":  bson.M{"status": to},
			"$push": bson.M{"status_history": change},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) RecordCancellation(ctx context.Context, id string, from model.BookingStatus, fee int64, reason, by string, at time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	change := model.StatusChange{
		Status:    model.StatusCancelled,
		Timestamp: at,
		Note:      reason,
		UpdatedBy: by,
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": from},
		bson.M{
			"$set": bson.M{
				"status":              model.StatusCancelled,
				"cancellation_reason": reason,
				"cancelled_by":        by,
				"cancelled_at":        at,
				"cancellation_fee":    fee,
			},
			"$push": bson.M{"status_history": change},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to record cancellation: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) MarkPointsAwarded(ctx context.Context, id string, points int64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":            objectID,
			"status":         model.StatusCompleted,
			"points_awarded": false,
		},
		bson.M{"$set": bson.M{"points_awarded": true, "points_earned": points}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark points awarded: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) SetOtp(ctx context.Context, id, code string, expiresAt time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	// Eligible only while unverified with no live code. The whole
	// predicate sits in the filter so two concurrent issuers cannot both
	// install a code.
	filter := bson.M{
		"_id":             objectID,
		"booking_type":    model.BookingTypeGuest,
		"is_otp_verified": false,
		"$or": []bson.M{
			{"otp_code": bson.M{"$exists": false}},
			{"otp_code": ""},
			{"otp_expired_at": bson.M{"$lte": time.Now().UTC()}},
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"otp_code":       code,
			"otp_expired_at": expiresAt,
			"otp_attempts":   0,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to set verification code: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) IncrementOtpAttempts(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"otp_attempts": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment verification attempts: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) ConfirmOtp(ctx context.Context, id string, change model.StatusChange) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	now := change.Timestamp
	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":             objectID,
			"booking_type":    model.BookingTypeGuest,
			"is_otp_verified": false,
			"status":          model.StatusPending,
		},
		bson.M{
			"$set": bson.M{
				"is_otp_verified": true,
				"otp_verified_at": now,
				"status":          model.StatusConfirmed,
			},
			"$push": bson.M{"status_history": change},
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to confirm verification: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
