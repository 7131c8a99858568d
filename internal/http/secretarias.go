package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/util"
)

// ListSecretarias devolve o catálogo de secretarias. Leitura liberada
// para qualquer usuário autenticado.
func (h *Handler) ListSecretarias(w http.ResponseWriter, r *http.Request) {
	secretarias, err := h.queries.ListSecretarias(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, secretarias)
}

func (h *Handler) GetSecretaria(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	secretaria, err := h.queries.GetSecretariaByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, secretaria)
}

// CriarSecretaria cadastra secretaria. Restrita a administradores no router.
func (h *Handler) CriarSecretaria(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"nome"`
		Sigla string `json:"sigla"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	payload.Nome = strings.TrimSpace(payload.Nome)
	payload.Sigla = strings.TrimSpace(payload.Sigla)
	if payload.Nome == "" || payload.Sigla == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nome e sigla são obrigatórios", nil)
		return
	}

	secretaria, err := h.queries.InsertSecretaria(r.Context(), util.NewID(), payload.Nome, payload.Sigla)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, secretaria)
}

func (h *Handler) AtualizarSecretaria(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	atual, err := h.queries.GetSecretariaByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	var payload struct {
		Nome  *string `json:"nome,omitempty"`
		Sigla *string `json:"sigla,omitempty"`
		Ativa *bool   `json:"ativa,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if payload.Nome != nil {
		atual.Nome = strings.TrimSpace(*payload.Nome)
	}
	if payload.Sigla != nil {
		atual.Sigla = strings.TrimSpace(*payload.Sigla)
	}
	if payload.Ativa != nil {
		atual.Ativa = *payload.Ativa
	}
	if atual.Nome == "" || atual.Sigla == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nome e sigla são obrigatórios", nil)
		return
	}

	secretaria, err := h.queries.UpdateSecretaria(r.Context(), atual)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, secretaria)
}

func (h *Handler) DeletarSecretaria(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.queries.DeleteSecretaria(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "secretaria removida"})
}

// ListTiposDemanda devolve o catálogo de tipos de demanda.
func (h *Handler) ListTiposDemanda(w http.ResponseWriter, r *http.Request) {
	tipos, err := h.queries.ListTiposDemanda(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tipos)
}

func (h *Handler) CriarTipoDemanda(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome         string     `json:"nome"`
		SecretariaID *uuid.UUID `json:"secretaria_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	payload.Nome = strings.TrimSpace(payload.Nome)
	if payload.Nome == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nome é obrigatório", nil)
		return
	}

	tipo, err := h.queries.InsertTipoDemanda(r.Context(), repo.TipoDemanda{
		ID:           util.NewID(),
		Nome:         payload.Nome,
		SecretariaID: payload.SecretariaID,
		Ativo:        true,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tipo)
}

func (h *Handler) DeletarTipoDemanda(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.queries.DeleteTipoDemanda(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "tipo de demanda removido"})
}
