package audit

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// DefaultCollection is the collection audit events are written to unless
// overridden.
const DefaultCollection = "audit_events"

// MongoStorage persists audit events to a MongoDB collection. Events are
// append-only; this storage never updates or deletes documents.
type MongoStorage struct {
	coll *mongo.Collection
}

// MongoStorageOption configures a MongoStorage.
type MongoStorageOption func(*mongoStorageConfig)

type mongoStorageConfig struct {
	collection string
}

// WithCollection overrides the target collection name.
func WithCollection(name string) MongoStorageOption {
	return func(c *mongoStorageConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// NewMongoStorage creates a storage over the given database.
func NewMongoStorage(db *mongo.Database, opts ...MongoStorageOption) (*MongoStorage, error) {
	if db == nil {
		return nil, ErrStorageNotAvailable
	}

	cfg := mongoStorageConfig{collection: DefaultCollection}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &MongoStorage{coll: db.Collection(cfg.collection)}, nil
}

type mongoEvent struct {
	ID        string         `bson:"_id"`
	TenantID  string         `bson:"tenant_id,omitempty"`
	ActorID   string         `bson:"actor_id"`
	Action    string         `bson:"action"`
	Outcome   string         `bson:"outcome"`
	Error     string         `bson:"error,omitempty"`
	IP        string         `bson:"ip,omitempty"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	CreatedAt int64          `bson:"created_at"` // Unix milliseconds
}

func (s *MongoStorage) Store(ctx context.Context, event Event) error {
	doc := mongoEvent{
		ID:        event.ID,
		TenantID:  event.TenantID,
		ActorID:   event.ActorID,
		Action:    event.Action,
		Outcome:   string(event.Outcome),
		Error:     event.Error,
		IP:        event.IP,
		Metadata:  event.Metadata,
		CreatedAt: event.CreatedAt.UnixMilli(),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}
