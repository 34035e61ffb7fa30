package mongostore

import (
	"context"
	"errors"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/stores"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type revokedToken struct {
	Digest    string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Revoke records token for ttl. expires_at is set on the server's wall clock,
// which is what the TTL index prunes against. A second revoke of the same
// token is a no-op.
func (s *Store) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	err := insertOne(ctx, s.col(ColRevokedTokens), revokedToken{
		Digest:    stores.TokenDigest(token),
		ExpiresAt: s.now().Add(ttl).UTC(),
	})
	if errors.Is(err, goAccount.ErrStoreDuplicate) {
		return nil
	}
	return err
}

func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.col(ColRevokedTokens).CountDocuments(ctx, bson.D{{Key: "_id", Value: stores.TokenDigest(token)}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
