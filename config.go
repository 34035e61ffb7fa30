package goAccount

import (
	"errors"
	"time"
)

// Config is passed to [Builder.WithConfig] once at startup and is immutable
// afterwards.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	OTP      OTPConfig
	Account  AccountConfig
	Security SecurityConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	Algorithm   string // "argon2id" (default) or "bcrypt"
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int

	// UpgradeOnLogin re-hashes weaker digests after a successful login.
	UpgradeOnLogin bool
	// MaxConcurrent bounds in-flight hash and verify calls.
	MaxConcurrent int64
}

/*
====================================
OTP CONFIG
====================================
*/

type OTPConfig struct {
	// RequireForLogin makes every password login a two-step flow.
	RequireForLogin bool
	Period          time.Duration
	Digits          int
	Skew            uint
	ChallengeTTL    time.Duration
	MaxAttempts     int
	Issuer          string
	RedisPrefix     string
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

type AccountConfig struct {
	// AllowAdminSignup lets Register create Admin accounts. Off by default;
	// the first admin is created with [Engine.EnsureAdmin].
	AllowAdminSignup bool
	MaxNameLength    int
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	// OperationTimeout bounds every store round trip of a single operation.
	OperationTimeout time.Duration
	MaxLoginAttempts int
	LoginWindow      time.Duration
	RateLimitPrefix  string
	RevocationPrefix string
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. JWT.PrivateKey must still be
// set by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:           time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			Algorithm:      "argon2id",
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			BcryptCost:     12,
			UpgradeOnLogin: true,
			MaxConcurrent:  8,
		},
		OTP: OTPConfig{
			RequireForLogin: true,
			Period:          30 * time.Second,
			Digits:          6,
			Skew:            2,
			ChallengeTTL:    5 * time.Minute,
			MaxAttempts:     5,
			Issuer:          "goAccount",
			RedisPrefix:     "aotp",
		},
		Account: AccountConfig{
			MaxNameLength: 100,
		},
		Security: SecurityConfig{
			OperationTimeout: 5 * time.Second,
			MaxLoginAttempts: 20,
			LoginWindow:      15 * time.Minute,
			RateLimitPrefix:  "arl",
			RevocationPrefix: "arv",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

func (c *Config) Validate() error {
	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Password
	if c.Password.Algorithm != "argon2id" && c.Password.Algorithm != "bcrypt" {
		return errors.New("Password Algorithm must be argon2id or bcrypt")
	}
	if c.Password.BcryptCost < 10 || c.Password.BcryptCost > 15 {
		return errors.New("Password BcryptCost must be between 10 and 15")
	}
	if c.Password.MaxConcurrent <= 0 {
		return errors.New("Password MaxConcurrent must be > 0")
	}

	// OTP
	if c.OTP.Period < time.Second {
		return errors.New("OTP Period must be >= 1s")
	}
	if c.OTP.ChallengeTTL <= 0 {
		return errors.New("OTP ChallengeTTL must be > 0")
	}
	if c.OTP.Skew == 0 {
		return errors.New("OTP Skew must be >= 1")
	}
	if c.OTP.MaxAttempts <= 0 {
		return errors.New("OTP MaxAttempts must be > 0")
	}

	// Account
	if c.Account.MaxNameLength <= 0 {
		return errors.New("Account MaxNameLength must be > 0")
	}

	// Security
	if c.Security.OperationTimeout <= 0 {
		return errors.New("Security OperationTimeout must be > 0")
	}
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginWindow <= 0 {
		return errors.New("Security LoginWindow must be > 0 when MaxLoginAttempts is set")
	}

	return nil
}
