package goAccount

import (
	"errors"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/MrEthical07/goAccount/internal/stores"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/otp"
	"github.com/MrEthical07/goAccount/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Builder assembles an [Engine]. It is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users       UserStore
	revocations RevocationList
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the shared store for OTP challenges, login rate limits and,
// unless [Builder.WithRevocationList] is used, the token blacklist.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithRevocationList replaces the Redis blacklist, for example with the
// MongoDB one.
func (b *Builder) WithRevocationList(list RevocationList) *Builder {
	b.revocations = list
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time.Now for token issuance and OTP checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine. A Builder can be
// used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if cfg.OTP.RequireForLogin && b.notifier == nil {
		return nil, errors.New("notifier required when OTP RequireForLogin is set")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hasher, err := password.New(password.Config{
		Algorithm: password.Algorithm(cfg.Password.Algorithm),
		Argon2: password.Argon2Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		BcryptCost: cfg.Password.BcryptCost,
	})
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	codes, err := otp.New(otp.Config{
		Issuer: cfg.OTP.Issuer,
		Period: cfg.OTP.Period,
		Digits: cfg.OTP.Digits,
		Skew:   cfg.OTP.Skew,
	})
	if err != nil {
		return nil, err
	}

	revocations := b.revocations
	if revocations == nil {
		revocations = stores.NewRevocationStore(b.redis, cfg.Security.RevocationPrefix)
	}

	engine := &Engine{
		config:        cfg,
		users:         b.users,
		otpChallenges: stores.NewOTPChallengeStore(b.redis, cfg.OTP.RedisPrefix).WithClock(now),
		otp:           codes,
		notifier:      b.notifier,
		rateLimiter: rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Security.MaxLoginAttempts,
			Window:      cfg.Security.LoginWindow,
			Prefix:      cfg.Security.RateLimitPrefix,
		}),
		hasher:     hasher,
		hashSlots:  semaphore.NewWeighted(cfg.Password.MaxConcurrent),
		jwtManager: jm,
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger.Named("goaccount"),
		now:        now,
	}

	engine.flows = internalflows.Deps{
		Validate: internalflows.ValidateDeps{
			ParseToken:       jm.Parse,
			Revocations:      revocations,
			OperationContext: engine.opContext,
		},
		Revoke: internalflows.RevokeDeps{
			ParseToken:       jm.Parse,
			Revocations:      revocations,
			Now:              now,
			Leeway:           cfg.JWT.Leeway,
			OperationContext: engine.opContext,
		},
		OTP: internalflows.OTPVerifyDeps{
			Challenges: engine.otpChallenges,
			VerifyCode: func(secret, code string, t time.Time) bool {
				return codes.Verify(secret, code, t, codes.Tolerance())
			},
			Now:         now,
			MaxAttempts: cfg.OTP.MaxAttempts,
		},
	}

	b.built = true
	return engine, nil
}
