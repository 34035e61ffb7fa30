// Package mongostore persists accounts and revoked tokens in MongoDB using
// mongo-go-driver v2. Collections and indexes are declared in ensureIndexes.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	ColUsers         = "users"
	ColRevokedTokens = "revoked_tokens"
)

// Store implements goAccount.UserStore and goAccount.RevocationList.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Open connects to uri, pings, and ensures indexes on dbName. Index failures
// are returned: uniqueness of email and identity depends on them.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := New(client.Database(dbName))
	s.client = client
	if err := s.ensureIndexes(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ensure indexes failed: %w", err)
	}
	return s, nil
}

// New wraps an existing database handle. Callers that use New are
// responsible for indexes (see EnsureIndexes) and for closing the client.
func New(db *mongo.Database) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureIndexes creates the unique and TTL indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return s.ensureIndexes(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	exists := func(field string) bson.D {
		return bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}}
	}

	indexes := []struct {
		col   string
		model mongo.IndexModel
	}{
		{ColUsers, mongo.IndexModel{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_email").
				SetUnique(true).
				SetPartialFilterExpression(exists("email")),
		}},
		{ColUsers, mongo.IndexModel{
			Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "provider", Value: 1}},
			Options: options.Index().
				SetName("uniq_identity").
				SetUnique(true).
				SetPartialFilterExpression(exists("account_id")),
		}},
		{ColRevokedTokens, mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		}},
	}

	for _, i := range indexes {
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, i.model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	return nil
}
