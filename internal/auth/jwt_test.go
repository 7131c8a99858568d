package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/demandas/internal/config"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		AccessSecret:      "chave-de-teste-access-0123456789abcdef",
		AccessTTL:         time.Hour,
		RefreshSecret:     "chave-de-teste-refresh-0123456789abcdef",
		RefreshTTL:        24 * time.Hour,
		RecuperacaoSecret: "chave-de-teste-recuperacao-0123456789ab",
		RecuperacaoTTL:    time.Hour,
		VerificacaoSecret: "chave-de-teste-verificacao-0123456789ab",
		VerificacaoTTL:    time.Hour,
	}
}

func TestIssueVerifyPorEspecie(t *testing.T) {
	m := NewTokenManager(testTokenConfig())
	userID := uuid.New()

	for _, kind := range []Especie{EspecieAccess, EspecieRefresh, EspecieRecuperacao, EspecieVerificacao} {
		token, err := m.Issue(kind, userID)
		require.NoError(t, err, "espécie %s", kind)
		require.NotEmpty(t, token)

		claims, err := m.Verify(kind, token)
		require.NoError(t, err, "espécie %s", kind)

		sub, err := claims.SubjectUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, sub)
	}
}

func TestVerifyRejeitaEspecieTrocada(t *testing.T) {
	m := NewTokenManager(testTokenConfig())

	token, err := m.Issue(EspecieAccess, uuid.New())
	require.NoError(t, err)

	// mesmo algoritmo, segredo de outra espécie: assinatura não confere
	_, err = m.Verify(EspecieRefresh, token)
	assert.ErrorIs(t, err, ErrTokenInvalido)
}

func TestVerifyDistingueExpiradoDeInvalido(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessTTL = -time.Minute
	m := NewTokenManager(cfg)

	token, err := m.Issue(EspecieAccess, uuid.New())
	require.NoError(t, err)

	_, err = m.Verify(EspecieAccess, token)
	assert.ErrorIs(t, err, ErrTokenExpirado)

	_, err = m.Verify(EspecieAccess, "nem-um-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalido)
}

func TestDecodeIgnoraExpiracao(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessTTL = -time.Minute
	m := NewTokenManager(cfg)

	userID := uuid.New()
	token, err := m.Issue(EspecieAccess, userID)
	require.NoError(t, err)

	claims, err := m.Decode(EspecieAccess, token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))
}

func TestIssueSemSegredo(t *testing.T) {
	m := NewTokenManager(config.TokenConfig{})

	_, err := m.Issue(EspecieAccess, uuid.New())
	assert.ErrorIs(t, err, ErrSegredoAusente)
}

func TestHashTokenDeterministico(t *testing.T) {
	a := HashToken("abc")
	b := HashToken("abc")
	c := HashToken("abd")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "sessao:refresh:"+a, SessionRedisKey(a))
}
