package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/auth"
	httpmiddleware "github.com/gestaozabele/demandas/internal/http/middleware"
	"github.com/gestaozabele/demandas/internal/service"
)

// Login autentica por identificador (e-mail, username, CPF ou CNPJ) e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Identificador string `json:"identificador"`
		Senha         string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Identificador) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Identificador, payload.Senha)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": result})
}

// Logout revoga o par de tokens do portador. Aceita o token no corpo ou
// no header Authorization.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	token := payload.AccessToken
	if token == "" {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "sessão encerrada"})
}

// Revoke limpa a sessão do usuário alvo; rota restrita a administradores.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.authService.Revoke(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "sessão revogada"})
}

// Refresh troca refresh token por novo access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.RefreshToken) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token é obrigatório", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": result})
}

// RecuperarSenha inicia o fluxo de recuperação por e-mail.
func (h *Handler) RecuperarSenha(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.authService.RecuperarSenha(r.Context(), payload.Email); err != nil {
		WriteServiceError(w, err)
		return
	}

	// aceite genérico: não confirma o envio em si
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "se o e-mail estiver cadastrado, as instruções foram enviadas",
	})
}

// AlterarSenha consome o código de recuperação e grava a nova senha.
func (h *Handler) AlterarSenha(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token     string `json:"token"`
		NovaSenha string `json:"nova_senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.authService.AlterarSenha(r.Context(), payload.Token, payload.NovaSenha); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "senha alterada"})
}

// VerificarEmail confirma o e-mail do usuário pelo token enviado.
func (h *Handler) VerificarEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.authService.VerificarEmail(r.Context(), payload.Token); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "e-mail verificado"})
}

// Introspect devolve o diagnóstico do access token no formato RFC 7662.
func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AccessToken string `json:"accesstoken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	WriteJSON(w, http.StatusOK, h.authService.Introspect(payload.AccessToken))
}

// Signup realiza o auto-cadastro de munícipe.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome     string  `json:"nome"`
		Email    string  `json:"email"`
		Senha    string  `json:"senha"`
		Username *string `json:"username,omitempty"`
		CPF      *string `json:"cpf,omitempty"`
		CNPJ     *string `json:"cnpj,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	user, err := h.authService.CriarComSenha(r.Context(), service.SignupParams{
		Nome:     payload.Nome,
		Email:    payload.Email,
		Senha:    payload.Senha,
		Username: payload.Username,
		CPF:      payload.CPF,
		CNPJ:     payload.CNPJ,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

// Me devolve o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"usuario":     principal.Usuario,
		"papel":       principal.Papel.String(),
		"secretarias": principal.Secretarias,
	})
}

// principal resolve o usuário autenticado com papel e escopo.
func (h *Handler) principal(r *http.Request) (service.Principal, error) {
	subject, err := httpmiddleware.SubjectUUID(r.Context())
	if err != nil {
		return service.Principal{}, auth.ErrTokenInvalido
	}
	return h.rbac.Principal(r.Context(), subject)
}
