package catalog

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

const CollectionName = "Services"

// ServiceCatalog resolves bookable services and keeps their usage
// counters. Resolve is all-or-nothing: one unknown or inactive ID fails
// the whole set.
type ServiceCatalog interface {
	Resolve(ctx context.Context, ids []string) ([]*model.Service, error)
	RecordBooked(ctx context.Context, ids []string) error
	RecordCompleted(ctx context.Context, ids []string) error
}

type mongoServiceCatalog struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoServiceCatalog(cfg *config.Config) ServiceCatalog {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoServiceCatalog{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (c *mongoServiceCatalog) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *mongoServiceCatalog) Resolve(ctx context.Context, ids []string) ([]*model.Service, error) {
	ctx, cancel := c.withTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	objectIDs, err := toObjectIDs(ids)
	if err != nil {
		return nil, err
	}

	cursor, err := c.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*model.Service
	if err = cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}

	byID := make(map[string]*model.Service, len(found))
	for _, svc := range found {
		byID[svc.ID] = svc
	}

	// Rebuild in request order so the price snapshot follows the caller's
	// line ordering.
	resolved := make([]*model.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
		}
		if svc.Status != model.ServiceActive {
			return nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, svc.Name)
		}
		resolved = append(resolved, svc)
	}

	return resolved, nil
}

func (c *mongoServiceCatalog) RecordBooked(ctx context.Context, ids []string) error {
	return c.incrementCounter(ctx, ids, "booking_count")
}

func (c *mongoServiceCatalog) RecordCompleted(ctx context.Context, ids []string) error {
	return c.incrementCounter(ctx, ids, "completed_count")
}

func (c *mongoServiceCatalog) incrementCounter(ctx context.Context, ids []string, field string) error {
	ctx, cancel := c.withTimeout(ctx, c.cfg.WriteTimeout)
	defer cancel()

	objectIDs, err := toObjectIDs(ids)
	if err != nil {
		return err
	}

	_, err = c.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": objectIDs}},
		bson.M{"$inc": bson.M{field: 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return nil
}

func toObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidServiceID, id)
		}
		objectIDs = append(objectIDs, oid)
	}
	return objectIDs, nil
}
