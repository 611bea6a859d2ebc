// Package handlers wires the HTTP surface: authentication endpoints, the
// user resource, and health probes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobboard/auth-service/internal/auth"
	"github.com/jobboard/auth-service/internal/config"
	"github.com/jobboard/auth-service/internal/cookies"
	"github.com/jobboard/auth-service/pkg/logger"
	"github.com/jobboard/auth-service/pkg/metrics"
)

// AuthenticateRequest is the login payload.
type AuthenticateRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// SessionResponse is returned by /authenticate and /refresh-token. TokenExpiry
// is the access token lifetime in seconds; the client schedules its renewal
// from it.
type SessionResponse struct {
	Token       string `json:"token"`
	TokenExpiry int    `json:"tokenExpiry"`
	Username    string `json:"username"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg     *config.Config
	authSvc *auth.Service
	cookies *cookies.Codec
}

func NewAuthHandler(cfg *config.Config, a *auth.Service, codec *cookies.Codec) *AuthHandler {
	return &AuthHandler{cfg: cfg, authSvc: a, cookies: codec}
}

// Register mounts the authentication routes.
func (h *AuthHandler) Register(r gin.IRoutes) {
	r.POST("/authenticate", h.Authenticate)
	r.GET("/refresh-token", h.RefreshToken)
	r.GET("/logout", h.Logout)
}

// Authenticate verifies credentials, installs the signed refresh-token
// cookie, and returns a fresh access token.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("invalid_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
			return
		}
		metrics.Logins.WithLabelValues("error").Inc()
		logger.Errorf("login failed for %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication temporarily unavailable"})
		return
	}

	// The cookie carries the opaque refresh id and expires with the grant,
	// so the browser stops sending it once it can no longer succeed.
	h.cookies.Set(c, h.cfg.RefreshToken.CookieName, sess.RefreshTokenID, sess.RefreshExpires, h.cfg.Server.Production())

	metrics.Logins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, SessionResponse{
		Token:       sess.AccessToken,
		TokenExpiry: int(sess.AccessTokenTTL.Seconds()),
		Username:    sess.Username,
	})
}

// RefreshToken exchanges the refresh cookie for a new access token. The
// cookie itself is left untouched on success.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshTokenID, err := h.cookies.Get(c, h.cfg.RefreshToken.CookieName)
	if err != nil {
		// missing cookie and forged signature read the same from outside
		metrics.Refreshes.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "The refresh token is not valid."})
		return
	}

	sess, err := h.authSvc.Refresh(c.Request.Context(), refreshTokenID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			metrics.Refreshes.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "The refresh token is not valid."})
		case errors.Is(err, auth.ErrExpiredRefreshToken):
			metrics.Refreshes.WithLabelValues("expired").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "The refresh token is expired."})
		default:
			metrics.Refreshes.WithLabelValues("error").Inc()
			logger.Errorf("refresh failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh temporarily unavailable"})
		}
		return
	}

	metrics.Refreshes.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, SessionResponse{
		Token:       sess.AccessToken,
		TokenExpiry: int(sess.AccessTokenTTL.Seconds()),
		Username:    sess.Username,
	})
}

// Logout revokes the refresh token and clears the cookie pair. Always
// answers 200: logging out without a session is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshTokenID, err := h.cookies.Get(c, h.cfg.RefreshToken.CookieName)
	if err == nil {
		if err := h.authSvc.Logout(c.Request.Context(), refreshTokenID); err != nil {
			logger.Warnf("logout: could not revoke refresh token: %v", err)
		}
	}

	h.cookies.Clear(c, h.cfg.RefreshToken.CookieName, h.cfg.Server.Production())
	metrics.Logouts.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "logout"})
}
