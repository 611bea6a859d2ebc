package refreshtokens

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no refresh token matches the lookup.
	ErrNotFound = errors.New("refresh token not found")
	// ErrConflict signals that the one-row-per-user constraint rejected an
	// insert. Callers must re-read and adopt the winning row.
	ErrConflict = errors.New("refresh token already exists for user")
)

// Repository provides refresh token persistence operations.
type Repository interface {
	Create(ctx context.Context, t *RefreshToken) error
	GetByUserID(ctx context.Context, userID string) (*RefreshToken, error)
	GetByID(ctx context.Context, id string) (*RefreshToken, error)
	// DeleteByID removes a token and reports whether a row was deleted.
	// Deleting a non-existent id is not an error.
	DeleteByID(ctx context.Context, id string) (bool, error)
	// Rotate atomically deletes the stale token (staleID may be empty) and
	// inserts the replacement. Returns ErrConflict when a concurrent writer
	// inserted a row for the same user first.
	Rotate(ctx context.Context, staleID string, t *RefreshToken) error
}
