package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobboard/auth-service/internal/users"
	"github.com/jobboard/auth-service/pkg/logger"
	"github.com/jobboard/auth-service/pkg/middleware"
)

// UserResponse is the public projection of a user account. The password
// hash never leaves the service.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// UsersHandler serves the user resource behind the identity guard.
type UsersHandler struct {
	usersSvc *users.Service
}

func NewUsersHandler(u *users.Service) *UsersHandler {
	return &UsersHandler{usersSvc: u}
}

// Register mounts the user routes. All of them require an authenticated
// caller.
func (h *UsersHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users", middleware.RequireIdentity())
	g.GET("/me", h.Me)
	g.GET("/:userId", h.GetByID)
}

// Me returns the account of the authenticated caller.
func (h *UsersHandler) Me(c *gin.Context) {
	username := middleware.Username(c)

	u, err := h.usersSvc.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// the token outlived the account
			c.JSON(http.StatusNotFound, gin.H{"error": "user no longer exists"})
			return
		}
		logger.Errorf("users/me lookup failed for %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
}

// GetByID returns a single user account by id.
func (h *UsersHandler) GetByID(c *gin.Context) {
	id := c.Param("userId")

	u, err := h.usersSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "The user of id " + id + " does not exist."})
			return
		}
		logger.Errorf("user lookup failed for id %q: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
}
