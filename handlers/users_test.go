package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobboard/auth-service/internal/tokens"
	"github.com/jobboard/auth-service/internal/users"
	"github.com/jobboard/auth-service/pkg/middleware"
)

func newUsersRouter(t *testing.T) (*gin.Engine, *users.MemoryRepository) {
	t.Helper()

	repo := users.NewMemoryRepository()
	_, err := repo.Create(context.Background(), "alice", "irrelevant-hash")
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.Identity(testSecret))
	api := r.Group("/api")
	NewUsersHandler(users.NewService(repo)).Register(api)
	return r, repo
}

func getWithToken(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUsersMe(t *testing.T) {
	r, _ := newUsersRouter(t)

	token, err := tokens.Mint(testSecret, "alice", time.Minute)
	require.NoError(t, err)

	w := getWithToken(r, "/api/users/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.CreatedAt.IsZero())
}

func TestUsersMe_RequiresAuthentication(t *testing.T) {
	r, _ := newUsersRouter(t)

	w := getWithToken(r, "/api/users/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsersMe_AccountDeletedAfterTokenIssued(t *testing.T) {
	r, _ := newUsersRouter(t)

	// token for a username that has no account
	token, err := tokens.Mint(testSecret, "ghost", time.Minute)
	require.NoError(t, err)

	w := getWithToken(r, "/api/users/me", token)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersGetByID(t *testing.T) {
	r, repo := newUsersRouter(t)

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	token, err := tokens.Mint(testSecret, "alice", time.Minute)
	require.NoError(t, err)

	w := getWithToken(r, "/api/users/"+u.ID, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, u.ID, resp.ID)
	assert.Equal(t, "alice", resp.Username)
}

func TestUsersGetByID_NotFound(t *testing.T) {
	r, _ := newUsersRouter(t)

	token, err := tokens.Mint(testSecret, "alice", time.Minute)
	require.NoError(t, err)

	w := getWithToken(r, "/api/users/does-not-exist", token)
	require.Equal(t, http.StatusNotFound, w.Code)
}
