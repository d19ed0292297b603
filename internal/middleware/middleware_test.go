package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tronik-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := GetUserFromContext(r)
		w.Write([]byte(claims.UserID))
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["erro"]
}

func TestGenerateAndParseToken(t *testing.T) {
	user := &models.User{ID: "u1", Username: "maria", Admin: true}

	token, err := GenerateToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, UserClaims{UserID: "u1", Username: "maria", Role: RoleAdmin}, claims)
	assert.True(t, claims.IsAdmin())

	_, err = ParseToken("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken(testSecret, user, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth(t *testing.T) {
	handler := Auth(testSecret)(okHandler())
	token, err := GenerateToken(testSecret, &models.User{ID: "u1", Username: "joao"}, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		erro   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Autenticação necessária"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Autenticação necessária"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "Token inválido ou expirado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/lixeiras", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.erro, errorBody(t, rec))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lixeiras", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	handler := Auth(testSecret)(RequireRole(RoleAdmin)(okHandler()))

	userToken, err := GenerateToken(testSecret, &models.User{ID: "u1", Username: "joao"}, time.Hour)
	require.NoError(t, err)
	adminToken, err := GenerateToken(testSecret, &models.User{ID: "a1", Username: "admin", Admin: true}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Acesso negado: requer privilégios de admin", errorBody(t, rec))

	req = httptest.NewRequest(http.MethodPost, "/api/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireRole(RoleAdmin)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	handler := NewRateLimiter(0.001, 2).Limit(okHandler())

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.0.5:5555"
	assert.Equal(t, "192.168.0.5", clientIP(req))

	req.RemoteAddr = "192.168.0.5"
	assert.Equal(t, "192.168.0.5", clientIP(req))
}
