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

// Handlers de grupos e permissões. Todas as rotas são restritas a
// administradores no router.

func (h *Handler) ListGrupos(w http.ResponseWriter, r *http.Request) {
	grupos, err := h.queries.ListGrupos(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, grupos)
}

func (h *Handler) CriarGrupo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome string `json:"nome"`
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

	grupo, err := h.queries.InsertGrupo(r.Context(), util.NewID(), payload.Nome)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, grupo)
}

func (h *Handler) DeletarGrupo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.queries.DeleteGrupo(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "grupo removido"})
}

func (h *Handler) ListPermissoes(w http.ResponseWriter, r *http.Request) {
	grupoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	permissoes, err := h.queries.ListPermissoesByGrupo(r.Context(), grupoID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, permissoes)
}

// CriarPermissao registra flags CRUD do grupo sobre rota+domínio.
// O par (rota, dominio) é único por grupo; duplicata devolve 409.
func (h *Handler) CriarPermissao(w http.ResponseWriter, r *http.Request) {
	grupoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Rota       string `json:"rota"`
		Dominio    string `json:"dominio"`
		Buscar     bool   `json:"buscar"`
		Criar      bool   `json:"criar"`
		Substituir bool   `json:"substituir"`
		Modificar  bool   `json:"modificar"`
		Deletar    bool   `json:"deletar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	payload.Rota = strings.TrimSpace(payload.Rota)
	payload.Dominio = strings.TrimSpace(payload.Dominio)
	if payload.Rota == "" || payload.Dominio == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "rota e domínio são obrigatórios", nil)
		return
	}

	permissao, err := h.queries.InsertPermissao(r.Context(), repo.Permissao{
		ID:         util.NewID(),
		GrupoID:    grupoID,
		Rota:       payload.Rota,
		Dominio:    payload.Dominio,
		Buscar:     payload.Buscar,
		Criar:      payload.Criar,
		Substituir: payload.Substituir,
		Modificar:  payload.Modificar,
		Deletar:    payload.Deletar,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, permissao)
}

func (h *Handler) DeletarPermissao(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "permissaoID"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.queries.DeletePermissao(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "permissão removida"})
}
