package password

import (
	"errors"
	"strings"
)

// Algorithm names the scheme used for new digests.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Config selects the algorithm for new digests and the parameters of both
// schemes. Existing digests of either scheme always verify.
type Config struct {
	Algorithm  Algorithm
	Argon2     Argon2Config
	BcryptCost int
}

// DefaultConfig returns Argon2id with 64 MiB memory and bcrypt cost 12 for
// legacy digests.
func DefaultConfig() Config {
	return Config{
		Algorithm: AlgorithmArgon2id,
		Argon2: Argon2Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		BcryptCost: DefaultBcryptCost,
	}
}

// scheme is one digest format. verify and needsUpgrade return an error only
// for a digest the scheme cannot parse.
type scheme interface {
	hash(plaintext string) (string, error)
	verify(plaintext, digest string) (bool, error)
	needsUpgrade(digest string) (bool, error)
}

// Hasher hashes new passwords with the configured algorithm and verifies
// digests of any supported algorithm, dispatching on the digest prefix.
type Hasher struct {
	algorithm Algorithm
	schemes   map[Algorithm]scheme
}

// New rejects unknown algorithms and parameters weaker than the package
// minimums, for both schemes.
func New(cfg Config) (*Hasher, error) {
	switch cfg.Algorithm {
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return nil, errors.New("unsupported password algorithm")
	}

	if err := cfg.Argon2.validate(); err != nil {
		return nil, err
	}
	b, err := newBcryptScheme(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &Hasher{
		algorithm: cfg.Algorithm,
		schemes: map[Algorithm]scheme{
			AlgorithmArgon2id: argon2idScheme{config: cfg.Argon2},
			AlgorithmBcrypt:   b,
		},
	}, nil
}

// Hash returns a salted digest of plaintext. Two calls with the same input
// produce different digests.
func (h *Hasher) Hash(plaintext string) (string, error) {
	return h.schemes[h.algorithm].hash(plaintext)
}

// Verify reports whether plaintext matches digest. Malformed or unknown
// digests yield false.
func (h *Hasher) Verify(plaintext, digest string) bool {
	s, ok := h.schemes[schemeOf(digest)]
	if !ok {
		return false
	}
	match, err := s.verify(plaintext, digest)
	return err == nil && match
}

// NeedsRehash reports whether digest should be replaced on the next
// successful login: it uses another algorithm or weaker parameters.
func (h *Hasher) NeedsRehash(digest string) bool {
	alg := schemeOf(digest)
	s, ok := h.schemes[alg]
	if !ok {
		return false
	}
	if alg != h.algorithm {
		return true
	}
	upgrade, err := s.needsUpgrade(digest)
	return err == nil && upgrade
}

func schemeOf(digest string) Algorithm {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return AlgorithmArgon2id
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return AlgorithmBcrypt
	default:
		return ""
	}
}
