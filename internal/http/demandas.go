package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/service"
)

// ListDemandas lista demandas visíveis ao solicitante. Aceita filtro
// opcional de status via query string.
func (h *Handler) ListDemandas(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	demandas, err := h.demandas.List(r.Context(), principal, r.URL.Query().Get("status"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demandas)
}

// GetDemanda devolve a demanda se o solicitante tiver escopo sobre ela.
func (h *Handler) GetDemanda(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	demanda, err := h.demandas.Get(r.Context(), principal, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demanda)
}

// CriarDemanda abre uma demanda com protocolo gerado.
func (h *Handler) CriarDemanda(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	var payload struct {
		Titulo        string     `json:"titulo"`
		Descricao     string     `json:"descricao"`
		TipoDemandaID *uuid.UUID `json:"tipo_demanda_id,omitempty"`
		SecretariaID  uuid.UUID  `json:"secretaria_id"`
		MunicipeID    *uuid.UUID `json:"municipe_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	demanda, err := h.demandas.Criar(r.Context(), principal, service.CriarDemandaParams{
		Titulo:        payload.Titulo,
		Descricao:     payload.Descricao,
		TipoDemandaID: payload.TipoDemandaID,
		SecretariaID:  payload.SecretariaID,
		MunicipeID:    payload.MunicipeID,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, demanda)
}

// AtualizarStatusDemanda faz a transição de status da demanda.
func (h *Handler) AtualizarStatusDemanda(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	demanda, err := h.demandas.AtualizarStatus(r.Context(), principal, id, payload.Status)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, demanda)
}

// AnexosDemanda lista as fotos anexadas à demanda.
func (h *Handler) AnexosDemanda(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	anexos, err := h.demandas.Anexos(r.Context(), principal, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, anexos)
}

// AnexarFotoDemanda recebe multipart com o campo "foto" e grava o anexo.
func (h *Handler) AnexarFotoDemanda(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := r.ParseMultipartForm(6 << 20); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}

	file, header, err := r.FormFile("foto")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "campo 'foto' obrigatório", nil)
		return
	}
	defer file.Close()

	conteudo, err := io.ReadAll(io.LimitReader(file, 6<<20))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "não foi possível ler o arquivo", nil)
		return
	}

	anexo, err := h.demandas.AnexarFoto(r.Context(), principal, id,
		header.Filename, header.Header.Get("Content-Type"), conteudo)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, anexo)
}

// DeletarDemanda remove a demanda conforme as regras de escopo.
func (h *Handler) DeletarDemanda(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principal(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.demandas.Deletar(r.Context(), principal, id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "demanda removida"})
}
