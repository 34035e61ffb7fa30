package otp

import (
	"errors"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Config of the code generator. Skew is the number of periods accepted on
// either side of the current one.
type Config struct {
	Issuer string
	Period time.Duration
	Digits int
	Skew   uint
}

func DefaultConfig() Config {
	return Config{
		Issuer: "goAccount",
		Period: 30 * time.Second,
		Digits: 6,
		Skew:   2,
	}
}

// Service generates secrets and codes. It holds no state between calls.
type Service struct {
	issuer string
	period uint
	digits potp.Digits
	skew   uint
}

func New(cfg Config) (*Service, error) {
	if cfg.Period < time.Second || cfg.Period%time.Second != 0 {
		return nil, errors.New("otp period must be a whole number of seconds")
	}
	var digits potp.Digits
	switch cfg.Digits {
	case 6:
		digits = potp.DigitsSix
	case 8:
		digits = potp.DigitsEight
	default:
		return nil, errors.New("otp digits must be 6 or 8")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "goAccount"
	}

	return &Service{
		issuer: cfg.Issuer,
		period: uint(cfg.Period / time.Second),
		digits: digits,
		skew:   cfg.Skew,
	}, nil
}

// NewSecret returns a fresh random base32 secret for account.
func (s *Service) NewSecret(account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account,
		Period:      s.period,
		Digits:      s.digits,
		Algorithm:   potp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// Generate returns the code for the period containing t.
func (s *Service) Generate(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, s.opts(0))
}

// Verify reports whether code matches secret within tolerance periods of t.
// Malformed codes or secrets yield false.
func (s *Service) Verify(secret, code string, t time.Time, tolerance uint) bool {
	ok, err := totp.ValidateCustom(code, secret, t.UTC(), s.opts(tolerance))
	return err == nil && ok
}

// Tolerance is the configured default skew.
func (s *Service) Tolerance() uint {
	return s.skew
}

// CodeLifetime is how long a freshly generated code is guaranteed to keep
// verifying at the default tolerance, wherever in its step it was generated.
// A code from early in a step lasts up to one period longer. Zero skew
// guarantees nothing.
func (s *Service) CodeLifetime() time.Duration {
	return time.Duration(s.period*s.skew) * time.Second
}

func (s *Service) opts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    s.period,
		Skew:      skew,
		Digits:    s.digits,
		Algorithm: potp.AlgorithmSHA1,
	}
}
