package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/config"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/email"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/ratelimit"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/services"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

type Services struct {
	Auth    services.AuthService
	Admin   services.AdminService
	Lockout services.LockoutStore
}

type RateLimiters struct {
	Login *ratelimit.LoginRateLimiter
}

func initServices(ctx context.Context, cfg *config.Config, repos *Repositories, hub ws.EventPublisher, log *slog.Logger) (*Services, *RateLimiters, error) {
	log = discardIfNil(log)

	lockout, err := initLockout(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("lockout store ready", "backend", cfg.Lockout.Backend)

	var mailer email.Sender
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.AppURL)
	} else {
		log.Info("RESEND_API_KEY not set, account emails disabled")
	}

	authService, err := services.NewAuthService(repos.Store, hub, services.AuthOptions{
		JWTSecret:       cfg.JWT.Secret,
		AccessExpiry:    time.Duration(cfg.JWT.AccessTokenExpiry) * time.Minute,
		RefreshExpiry:   time.Duration(cfg.JWT.RefreshTokenExpiry) * 24 * time.Hour,
		BootstrapAdmins: cfg.BootstrapAdmins,
		Lockout:         lockout,
		Mailer:          mailer,
		Logger:          log,
	})
	if err != nil {
		lockout.Close()
		return nil, nil, fmt.Errorf("failed to build auth service: %w", err)
	}

	svcs := &Services{
		Auth:    authService,
		Admin:   services.NewAdminService(repos.Store, hub, mailer, log),
		Lockout: lockout,
	}
	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow),
	}
	return svcs, limiters, nil
}

func initLockout(ctx context.Context, cfg *config.Config) (services.LockoutStore, error) {
	if cfg.Lockout.Backend == "redis" {
		store, err := services.NewRedisLockout(ctx, cfg.Lockout.RedisURL, cfg.Lockout.Threshold, cfg.Lockout.Window)
		if err != nil {
			return nil, fmt.Errorf("failed to build redis lockout: %w", err)
		}
		return store, nil
	}
	return services.NewMemoryLockout(cfg.Lockout.Threshold, cfg.Lockout.Window, nil), nil
}
