// Package auth orchestrates login, refresh, and logout over the credential
// verifier, the refresh-token store, and the access token minter.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobboard/auth-service/internal/refreshtokens"
	"github.com/jobboard/auth-service/internal/tokens"
	"github.com/jobboard/auth-service/internal/users"
)

var (
	// ErrInvalidCredentials is returned for unknown usernames and password
	// mismatches alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken covers an absent cookie and an unknown id.
	ErrInvalidRefreshToken = errors.New("the refresh token is not valid")
	// ErrExpiredRefreshToken means the deadline passed; the row has been
	// deleted and the user must log in again.
	ErrExpiredRefreshToken = errors.New("the refresh token is expired")
	// ErrPersistence wraps transient store failures that survived the
	// in-request retry.
	ErrPersistence = errors.New("persistence failure")
)

// Session is the result handed back to the client on login and refresh.
type Session struct {
	AccessToken    string
	AccessTokenTTL time.Duration
	Username       string
	RefreshTokenID string
	RefreshExpires time.Time
}

// Config carries the token duration policy.
type Config struct {
	JWTSecret          []byte
	AccessTokenTTL     time.Duration
	RefreshTTL         time.Duration
	RefreshRememberTTL time.Duration
}

// Service implements the authentication state machine. Each request is
// handled independently; the one-token-per-user invariant is enforced by
// the store, not by in-process locking.
type Service struct {
	cfg     Config
	users   *users.Service
	refresh *refreshtokens.Service
}

func NewService(cfg Config, u *users.Service, r *refreshtokens.Service) *Service {
	return &Service{cfg: cfg, users: u, refresh: r}
}

// Login verifies credentials, reuses or rotates the user's refresh token,
// and mints a fresh access token. Access tokens are never reused across
// logins even when the refresh token is.
func (s *Service) Login(ctx context.Context, username, password string, rememberMe bool) (*Session, error) {
	u, err := s.users.VerifyCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	ttl := s.cfg.RefreshTTL
	if rememberMe {
		ttl = s.cfg.RefreshRememberTTL
	}

	rt, _, err := s.refresh.EnsureForUser(ctx, u.ID, rememberMe, ttl)
	if err != nil {
		if errors.Is(err, refreshtokens.ErrPersistence) {
			// transient store failure: retry once with a fresh read-then-decide
			rt, _, err = s.refresh.EnsureForUser(ctx, u.ID, rememberMe, ttl)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	access, err := tokens.Mint(s.cfg.JWTSecret, u.Username, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &Session{
		AccessToken:    access,
		AccessTokenTTL: s.cfg.AccessTokenTTL,
		Username:       u.Username,
		RefreshTokenID: rt.ID,
		RefreshExpires: rt.ExpiresAt,
	}, nil
}

// Refresh exchanges a valid refresh token id for a new access token.
// The refresh id itself is not rotated on success: concurrent tabs share
// the cookie and a rotation here would race them against each other.
func (s *Service) Refresh(ctx context.Context, refreshTokenID string) (*Session, error) {
	if refreshTokenID == "" {
		return nil, ErrInvalidRefreshToken
	}

	rt, err := s.refresh.Validate(ctx, refreshTokenID)
	if err != nil {
		switch {
		case errors.Is(err, refreshtokens.ErrNotFound):
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, refreshtokens.ErrExpired):
			return nil, ErrExpiredRefreshToken
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	u, err := s.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// owner vanished; the grant is worthless
			_, _ = s.refresh.Delete(ctx, rt.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	access, err := tokens.Mint(s.cfg.JWTSecret, u.Username, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &Session{
		AccessToken:    access,
		AccessTokenTTL: s.cfg.AccessTokenTTL,
		Username:       u.Username,
		RefreshTokenID: rt.ID,
		RefreshExpires: rt.ExpiresAt,
	}, nil
}

// Logout deletes the refresh record when present. Idempotent: unknown and
// empty ids succeed without deleting anything.
func (s *Service) Logout(ctx context.Context, refreshTokenID string) error {
	if refreshTokenID == "" {
		return nil
	}
	if _, err := s.refresh.Delete(ctx, refreshTokenID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
