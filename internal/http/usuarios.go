package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/service"
)

// ListUsuarios lista usuários sob o escopo do solicitante.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	usuarios, err := h.usuarios.List(r.Context(), principal)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, usuarios)
}

// GetUsuario devolve o perfil do alvo conforme papel e escopo.
func (h *Handler) GetUsuario(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	alvoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	user, err := h.usuarios.Get(r.Context(), principal, alvoID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// CriarUsuario cadastra usuário por papel não munícipe.
func (h *Handler) CriarUsuario(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	var payload struct {
		Nome        string            `json:"nome"`
		Email       string            `json:"email"`
		Senha       string            `json:"senha"`
		Username    *string           `json:"username,omitempty"`
		CPF         *string           `json:"cpf,omitempty"`
		CNPJ        *string           `json:"cnpj,omitempty"`
		NivelAcesso *repo.NivelAcesso `json:"nivel_acesso,omitempty"`
		GrupoID     *uuid.UUID        `json:"grupo_id,omitempty"`
		Secretarias []uuid.UUID       `json:"secretarias,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	user, err := h.usuarios.Criar(r.Context(), principal, service.CriarUsuarioParams{
		Nome:        payload.Nome,
		Email:       payload.Email,
		Senha:       payload.Senha,
		Username:    payload.Username,
		CPF:         payload.CPF,
		CNPJ:        payload.CNPJ,
		NivelAcesso: payload.NivelAcesso,
		GrupoID:     payload.GrupoID,
		Secretarias: payload.Secretarias,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

// AtualizarUsuario aplica atualização parcial no perfil do alvo.
func (h *Handler) AtualizarUsuario(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	alvoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Nome        *string           `json:"nome,omitempty"`
		Email       *string           `json:"email,omitempty"`
		Username    *string           `json:"username,omitempty"`
		CPF         *string           `json:"cpf,omitempty"`
		CNPJ        *string           `json:"cnpj,omitempty"`
		NivelAcesso *repo.NivelAcesso `json:"nivel_acesso,omitempty"`
		GrupoID     *uuid.UUID        `json:"grupo_id,omitempty"`
		Secretarias []uuid.UUID       `json:"secretarias,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	user, err := h.usuarios.Atualizar(r.Context(), principal, alvoID, service.AtualizarUsuarioParams{
		Nome:        payload.Nome,
		Email:       payload.Email,
		Username:    payload.Username,
		CPF:         payload.CPF,
		CNPJ:        payload.CNPJ,
		NivelAcesso: payload.NivelAcesso,
		GrupoID:     payload.GrupoID,
		Secretarias: payload.Secretarias,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// DeletarUsuario remove o usuário alvo.
func (h *Handler) DeletarUsuario(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	alvoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.usuarios.Deletar(r.Context(), principal, alvoID); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "usuário removido"})
}

// SecretariasDoUsuario lista os vínculos de secretaria do alvo.
func (h *Handler) SecretariasDoUsuario(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	alvoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	ids, err := h.usuarios.Secretarias(r.Context(), principal, alvoID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ids)
}
