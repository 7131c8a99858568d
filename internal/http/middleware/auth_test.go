package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/config"
)

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager(config.TokenConfig{
		AccessSecret:  "chave-de-teste-access-0123456789abcdef",
		AccessTTL:     time.Hour,
		RefreshSecret: "chave-de-teste-refresh-0123456789abcdef",
		RefreshTTL:    time.Hour,
	})
}

func TestAuthInjetaSubject(t *testing.T) {
	tokens := testTokens()
	userID := uuid.New()

	token, err := tokens.Issue(auth.EspecieAccess, userID)
	require.NoError(t, err)

	var visto string
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visto = GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID.String(), visto)
}

func TestAuthRejeitaTokenInvalido(t *testing.T) {
	tokens := testTokens()
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria ser chamado")
	}))

	casos := map[string]string{
		"sem header":       "",
		"esquema errado":   "Basic abc",
		"token corrompido": "Bearer lixo",
	}

	for nome, header := range casos {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, nome)
	}
}

func TestAuthRejeitaRefreshComoAccess(t *testing.T) {
	tokens := testTokens()

	// refresh token usa outro segredo; não serve como access
	token, err := tokens.Issue(auth.EspecieRefresh, uuid.New())
	require.NoError(t, err)

	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria ser chamado")
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIPRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := IPRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	fazer := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, fazer("10.0.0.1"))
	assert.Equal(t, http.StatusOK, fazer("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, fazer("10.0.0.1"))

	// chaves separadas por IP
	assert.Equal(t, http.StatusOK, fazer("10.0.0.2"))
}
