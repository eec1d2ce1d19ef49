package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
)

// EndpointRegistry owns the push-endpoint lifecycle: at most one active
// endpoint per authenticated user, last registration wins.
type EndpointRegistry interface {
	// Register stores a new endpoint, replacing any prior endpoint for the
	// same user. userID may be empty for anonymous registrations, which are
	// keyed by endpoint URI instead. Returns the endpoint id.
	Register(ctx context.Context, userID string, sub models.AddSubscriptionRequest) (string, error)
	// Unregister removes the user's endpoint; missing endpoint is a no-op.
	Unregister(ctx context.Context, userID string) error
	Lookup(ctx context.Context, userID string) (*models.Endpoint, error)
	// ListAll returns a snapshot of every registered endpoint at call time.
	ListAll(ctx context.Context) ([]models.Endpoint, error)
	// Evict removes an endpoint by id after a permanent transport failure.
	// Idempotent: evicting a missing endpoint succeeds.
	Evict(ctx context.Context, endpointID string) error
}

type mongoEndpointRegistry struct {
	coll *mongo.Collection
}

// NewMongoEndpointRegistry creates an EndpointRegistry backed by the
// "subscriptions" collection.
func NewMongoEndpointRegistry(db *mongo.Database) EndpointRegistry {
	return &mongoEndpointRegistry{coll: db.Collection("subscriptions")}
}

func (r *mongoEndpointRegistry) Register(ctx context.Context, userID string, sub models.AddSubscriptionRequest) (string, error) {
	if sub.Endpoint == "" {
		return "", errs.ErrInvalidEndpoint
	}

	// A single upsert keeps replacement atomic: concurrent registrations for
	// the same user serialize on the filter key and the last write wins. The
	// _id survives re-registration, so eviction by id stays valid.
	filter := bson.M{"user_id": userID}
	if userID == "" {
		filter = bson.M{"endpoint": sub.Endpoint, "user_id": bson.M{"$exists": false}}
	}

	update := bson.M{
		"$set": bson.M{
			"endpoint":   sub.Endpoint,
			"keys":       sub.Keys,
			"created_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var ep models.Endpoint
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ep); err != nil {
		return "", err
	}
	return ep.ID, nil
}

func (r *mongoEndpointRegistry) Unregister(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func (r *mongoEndpointRegistry) Lookup(ctx context.Context, userID string) (*models.Endpoint, error) {
	var ep models.Endpoint
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&ep)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrEndpointNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

func (r *mongoEndpointRegistry) ListAll(ctx context.Context) ([]models.Endpoint, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var endpoints []models.Endpoint
	if err := cursor.All(ctx, &endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

func (r *mongoEndpointRegistry) Evict(ctx context.Context, endpointID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": endpointID})
	return err
}
