package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	minStateKeyBytes = 32
	stateNonceBytes  = 16
)

var ErrStateMismatch = errors.New("oauth: state mismatch")

// StateSigner issues and checks the anti-CSRF state of a login round trip.
// The cookie value is "<state>.<issued unix>.<mac>"; only the state part is
// sent to the provider.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateSigner copies key, which must be at least 32 bytes. States older
// than ttl are rejected.
func NewStateSigner(key []byte, ttl time.Duration) (*StateSigner, error) {
	if len(key) < minStateKeyBytes {
		return nil, errors.New("state key must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("state ttl must be > 0")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &StateSigner{key: k, ttl: ttl, now: time.Now}, nil
}

// WithClock overrides time.Now.
func (s *StateSigner) WithClock(now func() time.Time) *StateSigner {
	s.now = now
	return s
}

// TTL is the lifetime to give the state cookie.
func (s *StateSigner) TTL() time.Duration {
	return s.ttl
}

// New returns a fresh state for the authorize URL and the signed value for
// the cookie.
func (s *StateSigner) New() (state, cookie string, err error) {
	nonce := make([]byte, stateNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}
	state = base64.RawURLEncoding.EncodeToString(nonce)
	payload := state + "." + strconv.FormatInt(s.now().Unix(), 10)
	return state, payload + "." + s.sign(payload), nil
}

// Verify checks that cookie was issued by this signer, has not expired and
// carries state.
func (s *StateSigner) Verify(cookie, state string) error {
	parts := strings.Split(cookie, ".")
	if len(parts) != 3 || state == "" {
		return ErrStateMismatch
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(s.sign(payload))) {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(parts[0]), []byte(state)) != 1 {
		return ErrStateMismatch
	}

	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrStateMismatch
	}
	age := s.now().Sub(time.Unix(issued, 0))
	if age < 0 || age > s.ttl {
		return ErrStateMismatch
	}
	return nil
}

func (s *StateSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
