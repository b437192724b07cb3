package directory

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"serenity/pkg/config"
	"serenity/pkg/model"
)

const UserCollectionName = "Users"

// UserDirectory resolves member profiles. Members are created by the CRM
// surface, not here; bookings only ever read.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

type mongoUserDirectory struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserDirectory(cfg *config.Config) UserDirectory {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoUserDirectory{
		cfg:        cfg,
		collection: db.Collection(UserCollectionName),
	}
}

func (d *mongoUserDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var user model.User
	err = d.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (d *mongoUserDirectory) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	err := d.collection.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by external ID: %w", err)
	}
	return &user, nil
}
