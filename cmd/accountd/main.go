// Command accountd serves the account API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/MrEthical07/goAccount/oauth"
	"github.com/MrEthical07/goAccount/store/memstore"
	"github.com/MrEthical07/goAccount/store/mongostore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "accountd: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "accountd: logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("accountd stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.development() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	builder := goAccount.New().
		WithConfig(cfg.engineConfig()).
		WithRedis(rdb).
		WithLogger(logger)

	if cfg.MongoURI != "" {
		store, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}()
		builder.WithUserStore(store)
		if cfg.MongoRevocations {
			builder.WithRevocationList(store)
		}
		logger.Info("using mongodb user store", zap.String("database", cfg.MongoDatabase))
	} else {
		builder.WithUserStore(memstore.New())
		logger.Warn("MONGO_URI not set, accounts are kept in memory")
	}

	if cfg.SMTPHost != "" {
		mailer, err := notify.NewSMTP(cfg.smtpConfig(), logger)
		if err != nil {
			return err
		}
		builder.WithNotifier(mailer)
	} else {
		builder.WithNotifier(notify.NewLog(logger))
		logger.Warn("SMTP_HOST not set, login codes are written to the log")
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if cfg.AdminEmail != "" {
		admin, err := engine.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		logger.Info("admin account ready", zap.String("user_id", admin.ID))
	}

	opts := httpapi.Options{
		Logger:            logger,
		SecureCookies:     !cfg.development(),
		TrustForwardedFor: cfg.TrustProxy,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = prometheus.Handler(engine)
	}
	if cfg.githubEnabled() {
		gh, err := oauth.NewGitHub(oauth.GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubRedirectURL,
		})
		if err != nil {
			return err
		}
		states, err := oauth.NewStateSigner([]byte(cfg.StateSecret), 10*time.Minute)
		if err != nil {
			return err
		}
		opts.GitHub = gh
		opts.States = states
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.New(engine, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
