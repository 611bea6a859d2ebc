package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, repo *MemoryRepository, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), username, string(hash))
	require.NoError(t, err)
}

func TestVerifyCredentials(t *testing.T) {
	repo := NewMemoryRepository()
	seedUser(t, repo, "alice", "s3cret")
	svc := NewService(repo)

	u, err := svc.VerifyCredentials(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestVerifyCredentialsWrongPassword(t *testing.T) {
	repo := NewMemoryRepository()
	seedUser(t, repo, "alice", "s3cret")
	svc := NewService(repo)

	_, err := svc.VerifyCredentials(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyCredentialsUnknownUser(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	// unknown username and bad password yield the identical error
	_, err := svc.VerifyCredentials(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
