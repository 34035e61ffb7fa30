package stores

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRevocationBackend = errors.New("revocation backend unavailable")

// RevocationStore is a Redis blacklist of signed tokens. Entries are keyed by
// the SHA-256 of the exact token string and expire with the token.
type RevocationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRevocationStore(redisClient redis.UniversalClient, prefix string) *RevocationStore {
	if prefix == "" {
		prefix = "arv"
	}
	return &RevocationStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

// TokenDigest is the storage key for token.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *RevocationStore) key(token string) string {
	return s.prefix + ":" + TokenDigest(token)
}

// Revoke blacklists token for ttl. Revoking twice is a no-op; a non-positive
// ttl needs no entry.
func (s *RevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.SetNX(ctx, s.key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRevocationBackend, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationBackend, err)
	}
	return n > 0, nil
}
