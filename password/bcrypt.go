package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinBcryptCost     = 10
	MaxBcryptCost     = 15
	DefaultBcryptCost = 12
)

type bcryptScheme struct {
	cost int
}

func newBcryptScheme(cost int) (bcryptScheme, error) {
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		return bcryptScheme{}, fmt.Errorf("bcrypt cost must be between %d and %d", MinBcryptCost, MaxBcryptCost)
	}
	return bcryptScheme{cost: cost}, nil
}

func (s bcryptScheme) hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// verify returns (false, nil) on mismatch and an error only for a digest that
// is not a bcrypt hash.
func (s bcryptScheme) verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

func (s bcryptScheme) needsUpgrade(digest string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false, err
	}
	return cost < s.cost, nil
}
