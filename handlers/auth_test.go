package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobboard/auth-service/internal/auth"
	"github.com/jobboard/auth-service/internal/config"
	"github.com/jobboard/auth-service/internal/cookies"
	"github.com/jobboard/auth-service/internal/refreshtokens"
	"github.com/jobboard/auth-service/internal/tokens"
	"github.com/jobboard/auth-service/internal/users"
)

const (
	testCookieName = "jobBoardRefreshToken"
	testPassword   = "s3cret"
)

var testSecret = []byte("handlers-test-secret")

type testServer struct {
	router      *gin.Engine
	refreshRepo *refreshtokens.MemoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT:    config.JWTConfig{Secret: string(testSecret), Expiration: 10 * time.Minute},
		RefreshToken: config.RefreshTokenConfig{
			CookieName:         testCookieName,
			Expiration:         time.Hour,
			RememberExpiration: 15 * 24 * time.Hour,
		},
	}

	userRepo := users.NewMemoryRepository()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = userRepo.Create(context.Background(), "alice", string(hash))
	require.NoError(t, err)

	refreshRepo := refreshtokens.NewMemoryRepository()
	authSvc := auth.NewService(auth.Config{
		JWTSecret:          testSecret,
		AccessTokenTTL:     cfg.JWT.Expiration,
		RefreshTTL:         cfg.RefreshToken.Expiration,
		RefreshRememberTTL: cfg.RefreshToken.RememberExpiration,
	}, users.NewService(userRepo), refreshtokens.NewService(refreshRepo))

	codec := cookies.NewCodec("test-cookie-key-1", "test-cookie-key-2")

	r := gin.New()
	NewAuthHandler(cfg, authSvc, codec).Register(r)

	return &testServer{router: r, refreshRepo: refreshRepo}
}

func (s *testServer) do(t *testing.T, method, path, body string, withCookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range withCookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, body string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	w := s.do(t, "POST", "/authenticate", body, nil)
	return w, w.Result().Cookies()
}

func cookieByName(cks []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cks {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthenticate_Success(t *testing.T) {
	s := newTestServer(t)

	w, cks := s.login(t, `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, 600, resp.TokenExpiry)

	claims, err := tokens.Verify(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	// cookie pair set, scoped httpOnly, expiring with the grant
	value := cookieByName(cks, testCookieName)
	sig := cookieByName(cks, testCookieName+".sig")
	require.NotNil(t, value)
	require.NotNil(t, sig)
	assert.True(t, value.HttpOnly)
	assert.WithinDuration(t, time.Now().Add(time.Hour), value.Expires, time.Minute)
}

func TestAuthenticate_RememberMeExtendsCookie(t *testing.T) {
	s := newTestServer(t)

	w, cks := s.login(t, `{"username":"alice","password":"s3cret","rememberMe":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	value := cookieByName(cks, testCookieName)
	require.NotNil(t, value)
	assert.WithinDuration(t, time.Now().Add(15*24*time.Hour), value.Expires, time.Minute)
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"whatever"}`,
	} {
		w, _ := s.login(t, body)
		require.Equal(t, http.StatusUnauthorized, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid credentials."}`, w.Body.String(), body)
	}
}

func TestAuthenticate_BadPayload(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"username":"alice"}`,
		`not json`,
		``,
	} {
		w := s.do(t, "POST", "/authenticate", body, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	s := newTestServer(t)

	loginW, cks := s.login(t, `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, loginW.Code)
	var loginResp SessionResponse
	require.NoError(t, json.Unmarshal(loginW.Body.Bytes(), &loginResp))

	w := s.do(t, "GET", "/refresh-token", "", cks)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.NotEqual(t, loginResp.Token, resp.Token)
}

func TestRefreshToken_MissingCookie(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/refresh-token", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"The refresh token is not valid."}`, w.Body.String())
}

func TestRefreshToken_TamperedCookie(t *testing.T) {
	s := newTestServer(t)

	_, cks := s.login(t, `{"username":"alice","password":"s3cret"}`)
	value := cookieByName(cks, testCookieName)
	require.NotNil(t, value)
	value.Value = "forged-refresh-token-id"

	w := s.do(t, "GET", "/refresh-token", "", cks)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"The refresh token is not valid."}`, w.Body.String())
}

func TestRefreshToken_RevokedServerSide(t *testing.T) {
	s := newTestServer(t)

	_, cks := s.login(t, `{"username":"alice","password":"s3cret"}`)
	value := cookieByName(cks, testCookieName)
	require.NotNil(t, value)

	_, err := s.refreshRepo.DeleteByID(context.Background(), value.Value)
	require.NoError(t, err)

	w := s.do(t, "GET", "/refresh-token", "", cks)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"The refresh token is not valid."}`, w.Body.String())
}

func TestLogout_RevokesAndClearsCookie(t *testing.T) {
	s := newTestServer(t)

	_, cks := s.login(t, `{"username":"alice","password":"s3cret"}`)

	w := s.do(t, "GET", "/logout", "", cks)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"logout"}`, w.Body.String())

	cleared := cookieByName(w.Result().Cookies(), testCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	// the old cookie pair no longer refreshes
	w2 := s.do(t, "GET", "/refresh-token", "", cks)
	require.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestLogout_WithoutSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"logout"}`, w.Body.String())
}

func TestSecondLoginKeepsCookieValue(t *testing.T) {
	s := newTestServer(t)

	_, first := s.login(t, `{"username":"alice","password":"s3cret"}`)
	_, second := s.login(t, `{"username":"alice","password":"s3cret"}`)

	v1 := cookieByName(first, testCookieName)
	v2 := cookieByName(second, testCookieName)
	require.NotNil(t, v1)
	require.NotNil(t, v2)
	// a second tab logging in adopts the existing grant
	assert.Equal(t, v1.Value, v2.Value)
}
