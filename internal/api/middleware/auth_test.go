package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemach-ledger/internal/config"
)

const testSecret = "test-secret"

func testToken(t *testing.T, username string, method jwt.SigningMethod, key any) string {
	t.Helper()
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes through when auth is disabled", func(t *testing.T) {
		mw := AuthMiddleware(config.AuthConfig{Enabled: false}, logger)
		rec := httptest.NewRecorder()
		mw(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loans", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects missing Authorization header", func(t *testing.T) {
		mw := AuthMiddleware(config.AuthConfig{Enabled: true, JWTSecret: testSecret}, logger)
		rec := httptest.NewRecorder()
		mw(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loans", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		mw := AuthMiddleware(config.AuthConfig{Enabled: true, JWTSecret: testSecret}, logger)
		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		mw(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects token signed with wrong secret", func(t *testing.T) {
		mw := AuthMiddleware(config.AuthConfig{Enabled: true, JWTSecret: testSecret}, logger)
		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, "admin", jwt.SigningMethodHS256, []byte("other-secret")))
		rec := httptest.NewRecorder()
		mw(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepts valid token", func(t *testing.T) {
		mw := AuthMiddleware(config.AuthConfig{Enabled: true, JWTSecret: testSecret}, logger)
		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, "admin", jwt.SigningMethodHS256, []byte(testSecret)))
		rec := httptest.NewRecorder()
		mw(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestActorFromRequest(t *testing.T) {
	t.Run("returns username claim", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/blacklist", nil)
		req.Header.Set("Authorization", "Bearer "+testToken(t, "gabbai", jwt.SigningMethodHS256, []byte(testSecret)))
		assert.Equal(t, "gabbai", ActorFromRequest(req, "system"))
	})

	t.Run("falls back without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/blacklist", nil)
		assert.Equal(t, "system", ActorFromRequest(req, "system"))
	})
}
