package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/config"
)

// Especie identifica a finalidade de um token assinado.
type Especie string

const (
	EspecieAccess      Especie = "access"
	EspecieRefresh     Especie = "refresh"
	EspecieRecuperacao Especie = "recuperacao"
	EspecieVerificacao Especie = "verificacao"
)

var (
	// ErrSegredoAusente indica segredo de assinatura não configurado (erro fatal de configuração).
	ErrSegredoAusente = errors.New("segredo de assinatura não configurado")
	// ErrTokenInvalido indica assinatura ou estrutura inválida.
	ErrTokenInvalido = errors.New("token inválido")
	// ErrTokenExpirado indica token bem formado porém vencido.
	ErrTokenExpirado = errors.New("token expirado")
)

// Claims representa as informações presentes em um token emitido.
type Claims struct {
	jwt.RegisteredClaims
}

// SubjectUUID devolve o subject como UUID.
func (c *Claims) SubjectUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalido
	}
	return id, nil
}

// TokenManager emite e valida as quatro espécies de token.
// É o único detentor dos segredos de assinatura; a configuração é
// injetada na construção, nunca lida do ambiente aqui.
type TokenManager struct {
	cfg config.TokenConfig
}

// NewTokenManager cria o gerenciador com a política de tokens configurada.
func NewTokenManager(cfg config.TokenConfig) *TokenManager {
	return &TokenManager{cfg: cfg}
}

// Issue emite um JWT HS256 da espécie informada para o usuário.
func (m *TokenManager) Issue(kind Especie, userID uuid.UUID) (string, error) {
	secret, ttl, err := m.policy(kind)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify valida assinatura e expiração; não consulta armazenamento algum.
// Falha estrutural ou de assinatura devolve ErrTokenInvalido; token válido
// porém vencido devolve ErrTokenExpirado, e quem chama precisa distinguir.
func (m *TokenManager) Verify(kind Especie, tokenString string) (*Claims, error) {
	secret, _, err := m.policy(kind)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpirado
		}
		return nil, ErrTokenInvalido
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalido
	}

	return claims, nil
}

// Decode valida a assinatura mas ignora expiração; serve à introspecção,
// que reporta tokens vencidos como inativos em vez de rejeitá-los.
func (m *TokenManager) Decode(kind Especie, tokenString string) (*Claims, error) {
	secret, _, err := m.policy(kind)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalido
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalido
	}
	return claims, nil
}

// TTL devolve a validade configurada para a espécie.
func (m *TokenManager) TTL(kind Especie) time.Duration {
	_, ttl, err := m.policy(kind)
	if err != nil {
		return 0
	}
	return ttl
}

func (m *TokenManager) policy(kind Especie) ([]byte, time.Duration, error) {
	var secret string
	var ttl time.Duration

	switch kind {
	case EspecieAccess:
		secret, ttl = m.cfg.AccessSecret, m.cfg.AccessTTL
	case EspecieRefresh:
		secret, ttl = m.cfg.RefreshSecret, m.cfg.RefreshTTL
	case EspecieRecuperacao:
		secret, ttl = m.cfg.RecuperacaoSecret, m.cfg.RecuperacaoTTL
	case EspecieVerificacao:
		secret, ttl = m.cfg.VerificacaoSecret, m.cfg.VerificacaoTTL
	default:
		return nil, 0, ErrTokenInvalido
	}

	if secret == "" {
		return nil, 0, ErrSegredoAusente
	}
	return []byte(secret), ttl, nil
}
