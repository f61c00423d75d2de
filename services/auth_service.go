// Package services holds the gateway's business rules. Services take and
// return domain models; HTTP lives in handlers and SQL in repository.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/email"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/repository"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

const (
	tokenIssuer = "vitalyx"
	bcryptCost  = 12
)

// AuthService is the credential gateway.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthTokens, error)
	// RefreshToken rotates a refresh token. The old token stops working.
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error)
	// Logout ends the session behind refreshToken. Unknown tokens are not an error.
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	// Authenticate validates an access token and requires its session to
	// still exist, so logout and refresh rotation revoke it immediately.
	Authenticate(ctx context.Context, tokenString string) (*models.TokenClaims, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

// AuthOptions configures NewAuthService.
type AuthOptions struct {
	JWTSecret       string
	AccessExpiry    time.Duration
	RefreshExpiry   time.Duration
	BootstrapAdmins []string
	Lockout         LockoutStore
	Mailer          email.Sender // nil disables mail
	Now             func() time.Time
	Logger          *slog.Logger
}

type authService struct {
	store      repository.Store
	hub        ws.EventPublisher
	lockout    LockoutStore
	mailer     email.Sender
	jwtSecret  []byte
	accessExp  time.Duration
	refreshExp time.Duration
	admins     map[string]bool
	now        func() time.Time
	log        *slog.Logger

	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash []byte
}

// NewAuthService fails when the JWT secret or lockout store is missing.
func NewAuthService(store repository.Store, hub ws.EventPublisher, opts AuthOptions) (AuthService, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.Lockout == nil {
		return nil, errors.New("lockout store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	admins := make(map[string]bool, len(opts.BootstrapAdmins))
	for _, e := range opts.BootstrapAdmins {
		admins[models.NormalizeEmail(e)] = true
	}

	return &authService{
		store:      store,
		hub:        hub,
		lockout:    opts.Lockout,
		mailer:     opts.Mailer,
		jwtSecret:  []byte(opts.JWTSecret),
		accessExp:  opts.AccessExpiry,
		refreshExp: opts.RefreshExpiry,
		admins:     admins,
		now:        opts.Now,
		log:        logger.For(opts.Logger, "auth"),
		dummyHash:  dummy,
	}, nil
}

func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if req.FullName != "" {
		user.FullName = &req.FullName
	}
	if s.admins[user.Email] {
		user.Role = models.RoleAdmin
	}

	var tokens *models.AuthTokens
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		tokens, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, user.Email, user.FullName); err != nil {
			s.log.Warn("welcome email failed", "user_id", user.ID, "error", err)
		}
	}
	return tokens, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	remaining, err := s.lockout.Locked(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, lockedError(remaining)
	}

	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil || user == nil {
		lock, err := s.lockout.Fail(ctx, req.Email)
		if err != nil {
			s.log.Error("failed to record login failure", "error", err)
		}
		if lock > 0 {
			s.log.Warn("account locked", "email", req.Email, "for", lock)
			return nil, lockedError(lock)
		}
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrInvalidCredentials)
	}

	if err := s.lockout.Reset(ctx, req.Email); err != nil {
		s.log.Warn("failed to reset lockout", "error", err)
	}

	return s.issue(ctx, s.store, user)
}

func lockedError(remaining time.Duration) error {
	minutes := int(remaining.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Errorf("%w: too many failed attempts, try again in %d minute(s)", pkg.ErrAccountLocked, minutes)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", pkg.ErrBadRequest)
	}

	session, err := s.store.Sessions().GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if !s.now().Before(session.ExpiresAt) {
		if err := s.store.Sessions().DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrSessionExpired)
	}

	var tokens *models.AuthTokens
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		// A concurrent rotation of the same token deletes the row first.
		if err := tx.Sessions().DeleteByID(ctx, session.ID); err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return fmt.Errorf("%w: refresh token already used", pkg.ErrInvalidCredentials)
			}
			return fmt.Errorf("failed to delete old session: %w", err)
		}

		user, err := tx.Users().GetByID(ctx, session.UserID)
		if err != nil {
			return err
		}
		tokens, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.store.Sessions().GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.store.Sessions().DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}

	s.hub.BroadcastToUser(session.UserID, ws.Event{
		Op:   ws.OpSessionRevoked,
		Data: ws.SessionRevokedData{SessionID: session.ID},
	})
	s.log.Info("session ended", "user_id", session.UserID, "session_id", session.ID)
	return nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Sessions().GetByID(ctx, claims.SessionID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: session revoked", pkg.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ─── Private Helpers ───

// issue mints an access token and a new refresh session for user.
func (s *authService) issue(ctx context.Context, repos repository.Store, user *models.User) (*models.AuthTokens, error) {
	now := s.now()

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshString := hex.EncodeToString(refreshBytes)

	session := &models.SessionRecord{
		UserID:       user.ID,
		RefreshToken: refreshString,
		ExpiresAt:    now.Add(s.refreshExp),
	}
	if err := repos.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessClaims := &models.TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	accessString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	out := *user
	out.PasswordHash = ""

	return &models.AuthTokens{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		SessionID:    session.ID,
		IssuedAt:     now,
		ExpiresAt:    session.ExpiresAt,
		User:         out,
	}, nil
}
