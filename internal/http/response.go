package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/service"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteServiceError traduz os erros de domínio para o envelope HTTP.
// Stack traces e causas internas nunca vazam ao cliente.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidacao):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, service.ErrCredenciaisInvalidas):
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrCredenciaisInvalidas.Error(), nil)
	case errors.Is(err, service.ErrEmailNaoVerificado):
		WriteError(w, http.StatusForbidden, "EMAIL_NAO_VERIFICADO", service.ErrEmailNaoVerificado.Error(), nil)
	case errors.Is(err, service.ErrContaDesativada):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", service.ErrContaDesativada.Error(), nil)
	case errors.Is(err, service.ErrTokenAusente):
		WriteError(w, http.StatusBadRequest, "VALIDATION", service.ErrTokenAusente.Error(), nil)
	case errors.Is(err, service.ErrRefreshInvalido):
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrRefreshInvalido.Error(), nil)
	case errors.Is(err, service.ErrRecuperacaoExpirada):
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrRecuperacaoExpirada.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", service.ErrForbidden.Error(), nil)
	case errors.Is(err, auth.ErrTokenExpirado):
		WriteError(w, http.StatusUnauthorized, "TOKEN_EXPIRADO", auth.ErrTokenExpirado.Error(), nil)
	case errors.Is(err, auth.ErrTokenInvalido):
		WriteError(w, http.StatusUnauthorized, "AUTH", auth.ErrTokenInvalido.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", repo.ErrNotFound.Error(), nil)
	case errors.Is(err, repo.ErrDuplicado):
		WriteError(w, http.StatusConflict, "CONFLICT", repo.ErrDuplicado.Error(), nil)
	case errors.Is(err, repo.ErrConflitoVersao):
		WriteError(w, http.StatusConflict, "CONFLICT", repo.ErrConflitoVersao.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
