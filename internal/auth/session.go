package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// HashToken produz hash SHA-256 base64 de um token bearer; nunca se
// grava o valor bruto em chave de cache.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SessionRedisKey monta a chave do marcador de sessão ativa de refresh.
func SessionRedisKey(hash string) string {
	return fmt.Sprintf("sessao:refresh:%s", hash)
}
