package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo keeps documents in a MongoDB collection, one record per key:
//
//	{_id: <key>, data: <bytes>, expiresAt: <date, optional>}
//
// Expired records are filtered on read. Create a TTL index on expiresAt
// to have MongoDB remove them.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
	now    func() time.Time
}

type mongoRecord struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

// NewMongo wraps an existing collection. Close does not disconnect.
func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll, now: time.Now}
}

// OpenMongo connects to uri and uses database.collection. The store owns
// the client.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
		owned:  true,
		now:    time.Now,
	}, nil
}

// Get returns the record stored under key.
func (m *Mongo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec mongoRecord
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if rec.ExpiresAt != nil && m.now().After(*rec.ExpiresAt) {
		return nil, false, nil
	}
	return rec.Data, true, nil
}

// Set upserts the record for key.
func (m *Mongo) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	rec := mongoRecord{Key: key, Data: data}
	if ttl > 0 {
		exp := m.now().Add(ttl)
		rec.ExpiresAt = &exp
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the record for key.
func (m *Mongo) Delete(ctx context.Context, key string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client if the store opened it.
func (m *Mongo) Close() error {
	if !m.owned || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
