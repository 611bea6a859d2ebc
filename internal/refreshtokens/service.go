// Package refreshtokens persists the rotating per-user refresh tokens that
// back access token renewal.
package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrExpired is returned by Validate when the token's deadline has passed.
	// The stale row is deleted as a side effect, forcing a re-login.
	ErrExpired = errors.New("refresh token expired")
	// ErrPersistence marks a transient store failure. Callers may retry the
	// operation once with a fresh read-then-decide before surfacing it.
	ErrPersistence = errors.New("refresh token store failure")
)

// Service wraps repository operations with the reuse-or-rotate policy.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// EnsureForUser returns the refresh token a login should hand out. A still
// valid existing row is reused unchanged, so concurrent tabs and browsers
// of the same user share one renewal lineage. Otherwise the stale row (if
// any) is replaced by a fresh one valid for ttl.
//
// A concurrent login racing the rotation loses the insert against the
// unique user_id constraint; in that case the winner's row is re-read and
// adopted instead of failing the login.
func (s *Service) EnsureForUser(ctx context.Context, userID string, rememberMe bool, ttl time.Duration) (*RefreshToken, bool, error) {
	now := s.now().UTC()

	staleID := ""
	existing, err := s.repo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if !existing.Expired(now) {
			return existing, true, nil
		}
		staleID = existing.ID
	case errors.Is(err, ErrNotFound):
		// first login, nothing to replace
	default:
		return nil, false, fmt.Errorf("%w: lookup: %v", ErrPersistence, err)
	}

	fresh := &RefreshToken{
		ID:         uuid.NewString(),
		UserID:     userID,
		RememberMe: rememberMe,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	err = s.repo.Rotate(ctx, staleID, fresh)
	if err == nil {
		return fresh, false, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, false, fmt.Errorf("%w: rotation: %v", ErrPersistence, err)
	}

	// Lost the insert race: a concurrent login created the row first.
	// Re-read and adopt it.
	winner, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: re-read after conflict: %v", ErrPersistence, err)
	}
	if winner.Expired(now) {
		// not a store failure: the race winner's grant is already dead
		return nil, false, errors.New("refresh token conflict: winning row already expired")
	}
	return winner, true, nil
}

// Validate returns the token for id when it exists and is still valid.
// An expired row is deleted before ErrExpired is returned, so a replayed
// cookie fails with ErrNotFound afterwards.
func (s *Service) Validate(ctx context.Context, id string) (*RefreshToken, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now().UTC()) {
		if _, derr := s.repo.DeleteByID(ctx, id); derr != nil {
			return nil, fmt.Errorf("expired token cleanup: %w", derr)
		}
		return nil, ErrExpired
	}
	return t, nil
}

// Delete removes the token for id. Idempotent: a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteByID(ctx, id)
}
