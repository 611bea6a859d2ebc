// Package users verifies credentials against stored user accounts.
package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobboard/auth-service/internal/models"
)

// ErrInvalidCredentials covers both an unknown username and a password
// mismatch, so responses never reveal which usernames exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service wraps repository operations with credential verification.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// VerifyCredentials returns the user when username/password match a stored
// account, and ErrInvalidCredentials otherwise.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID fetches a user account by its identifier.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername fetches a user account by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, username)
}
