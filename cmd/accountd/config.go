package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	Env        string        `env:"APP_ENV" envDefault:"production"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
	Addr       string        `env:"ACCOUNTD_ADDR" envDefault:":8080"`
	Shutdown   time.Duration `env:"ACCOUNTD_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustProxy bool          `env:"ACCOUNTD_TRUST_PROXY"`

	JWTSecret string        `env:"JWT_SECRET,notEmpty,unset"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"1h"`
	JWTIssuer string        `env:"JWT_ISSUER"`

	MongoURI      string `env:"MONGO_URI,unset"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"accounts"`
	// MongoRevocations keeps the token blacklist in MongoDB instead of Redis.
	MongoRevocations bool `env:"MONGO_REVOCATIONS"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD,unset"`
	RedisDB       int    `env:"REDIS_DB"`

	OTPRequired      bool          `env:"OTP_REQUIRED" envDefault:"true"`
	MaxLoginAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"20"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
	AllowAdminSignup bool          `env:"ALLOW_ADMIN_SIGNUP"`

	AdminName     string `env:"ADMIN_NAME" envDefault:"Administrator"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD,unset"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET,unset"`
	GitHubRedirectURL  string `env:"GITHUB_REDIRECT_URL"`
	StateSecret        string `env:"OAUTH_STATE_SECRET,unset"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD,unset"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPTLS      bool   `env:"SMTP_IMPLICIT_TLS"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// loadConfig reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return config{}, errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	if cfg.githubEnabled() && len(cfg.StateSecret) < 32 {
		return config{}, errors.New("OAUTH_STATE_SECRET of at least 32 bytes is required for GitHub sign-in")
	}
	return cfg, nil
}

func (c config) development() bool {
	return c.Env == "development"
}

func (c config) githubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c config) engineConfig() goAccount.Config {
	cfg := goAccount.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(c.JWTSecret)
	cfg.JWT.TTL = c.JWTTTL
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.OTP.RequireForLogin = c.OTPRequired
	cfg.Security.MaxLoginAttempts = c.MaxLoginAttempts
	cfg.Security.LoginWindow = c.LoginWindow
	cfg.Account.AllowAdminSignup = c.AllowAdminSignup
	cfg.Metrics.Enabled = c.MetricsEnabled
	return cfg
}

func (c config) smtpConfig() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:        c.SMTPHost,
		Port:        c.SMTPPort,
		Username:    c.SMTPUsername,
		Password:    c.SMTPPassword,
		From:        c.SMTPFrom,
		ImplicitTLS: c.SMTPTLS,
	}
}
