package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpChallengeRecordVersion1 = 1

var (
	ErrOTPChallengeNotFound = errors.New("otp challenge not found")
	ErrOTPChallengeExpired  = errors.New("otp challenge expired")
	ErrOTPChallengeBackend  = errors.New("otp challenge backend unavailable")
)

// OTPChallenge is a pending login step-up. Secret is the per-challenge TOTP
// secret; it never leaves the server.
type OTPChallenge struct {
	Secret    string
	ExpiresAt int64
	Attempts  uint16
}

// OTPChallengeStore keeps at most one pending challenge per email address.
// Issuing a new challenge replaces the previous one.
type OTPChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewOTPChallengeStore(redisClient redis.UniversalClient, prefix string) *OTPChallengeStore {
	if prefix == "" {
		prefix = "aotp"
	}
	return &OTPChallengeStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock sets the clock used to judge ExpiresAt.
func (s *OTPChallengeStore) WithClock(now func() time.Time) *OTPChallengeStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *OTPChallengeStore) key(email string) string {
	return s.prefix + ":" + strings.ToLower(strings.TrimSpace(email))
}

func (s *OTPChallengeStore) Save(ctx context.Context, email string, record *OTPChallenge, ttl time.Duration) error {
	encoded, err := encodeOTPChallenge(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}
	return nil
}

func (s *OTPChallengeStore) Get(ctx context.Context, email string) (*OTPChallenge, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOTPChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}

	record, err := decodeOTPChallenge(data)
	if err != nil {
		return nil, err
	}
	if s.now().Unix() > record.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.key(email)).Result()
		return nil, ErrOTPChallengeExpired
	}
	return record, nil
}

// Delete removes the challenge and reports whether one existed. Callers use
// the result to make a successful verification single-use.
func (s *OTPChallengeStore) Delete(ctx context.Context, email string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}
	return n > 0, nil
}

// RecordFailure increments the attempt counter under WATCH and destroys the
// challenge once maxAttempts is reached. exceeded is true in that case.
func (s *OTPChallengeStore) RecordFailure(ctx context.Context, email string, maxAttempts int) (exceeded bool, err error) {
	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		exceeded = false
		err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			record, err := decodeOTPChallenge(data)
			if err != nil {
				return err
			}

			ttl := time.Unix(record.ExpiresAt, 0).Sub(s.now())
			record.Attempts++
			if int(record.Attempts) >= maxAttempts || ttl <= 0 {
				exceeded = int(record.Attempts) >= maxAttempts
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err == nil && !exceeded {
					return ErrOTPChallengeExpired
				}
				return err
			}

			updated, err := encodeOTPChallenge(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		switch {
		case err == nil:
			return exceeded, nil
		case errors.Is(err, redis.Nil):
			return false, ErrOTPChallengeNotFound
		case errors.Is(err, ErrOTPChallengeExpired):
			return false, err
		default:
			return false, fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
		}
	}

	return false, ErrOTPChallengeNotFound
}

func encodeOTPChallenge(record *OTPChallenge) ([]byte, error) {
	if len(record.Secret) > 255 {
		return nil, errors.New("otp secret length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(otpChallengeRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(len(record.Secret)))
	buf.WriteString(record.Secret)
	return buf.Bytes(), nil
}

func decodeOTPChallenge(data []byte) (*OTPChallenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpChallengeRecordVersion1 {
		return nil, errors.New("invalid otp challenge version")
	}

	record := &OTPChallenge{}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	n, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	secret := make([]byte, n)
	if _, err := io.ReadFull(reader, secret); err != nil {
		return nil, err
	}
	record.Secret = string(secret)
	return record, nil
}
