package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/service"
)

type contextKey string

const (
	// ContextKeySubject guarda o id do usuário autenticado.
	ContextKeySubject contextKey = "subject"
)

// Auth valida o access token e injeta o subject no contexto. A validação
// é criptográfica; papel e escopo são resolvidos depois, por requisição,
// pelos serviços.
func Auth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := tokens.Verify(auth.EspecieAccess, parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// SubjectUUID devolve o subject como UUID.
func SubjectUUID(ctx context.Context) (uuid.UUID, error) {
	return uuid.Parse(GetSubject(ctx))
}

// RequireAdministrador restringe a rota a administradores; o papel é
// conferido contra o banco, não apenas contra o token.
func RequireAdministrador(rbac *service.RBACService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := SubjectUUID(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			principal, err := rbac.Principal(r.Context(), subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado")
				return
			}

			if principal.Papel != service.PapelAdministrador {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a administradores")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
