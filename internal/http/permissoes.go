package http

import (
	"encoding/json"
	"net/http"

	"github.com/praticaeng/obrasflow/internal/repo"
)

// As rotas de permissão são montadas atrás de RequireHost; os handlers
// assumem ator host.

// ListPermissoesObra lista as permissões de obra de um funcionário.
func (h *Handler) ListPermissoesObra(w http.ResponseWriter, r *http.Request) {
	permissoes, err := h.repo.ListPermissoesObraByUsuario(r.Context(), pathParam(r, "usuarioID"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar permissões", nil)
		return
	}
	if permissoes == nil {
		permissoes = []repo.PermissaoObra{}
	}
	WriteJSON(w, http.StatusOK, permissoes)
}

// SetPermissaoObra concede ou ajusta a permissão (upsert no par
// usuário+obra).
func (h *Handler) SetPermissaoObra(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CanView bool `json:"can_view"`
		CanEdit bool `json:"can_edit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	usuarioID := pathParam(r, "usuarioID")
	obraID := pathParam(r, "obraID")

	if _, err := h.repo.GetUsuarioByID(r.Context(), usuarioID); err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
		return
	}
	if _, err := h.repo.GetObraByID(r.Context(), obraID); err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "obra não encontrada", nil)
		return
	}

	if err := h.repo.SetPermissaoObra(r.Context(), usuarioID, obraID, payload.CanView, payload.CanEdit); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível salvar a permissão", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeletePermissaoObra revoga a permissão do par usuário+obra.
func (h *Handler) DeletePermissaoObra(w http.ResponseWriter, r *http.Request) {
	err := h.repo.DeletePermissaoObra(r.Context(), pathParam(r, "usuarioID"), pathParam(r, "obraID"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível revogar a permissão", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "revogada"})
}

// ListPermissoesFerramenta lista as permissões de ferramenta de um
// funcionário.
func (h *Handler) ListPermissoesFerramenta(w http.ResponseWriter, r *http.Request) {
	permissoes, err := h.repo.ListPermissoesFerramentaByUsuario(r.Context(), pathParam(r, "usuarioID"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar permissões", nil)
		return
	}
	if permissoes == nil {
		permissoes = []repo.PermissaoFerramenta{}
	}
	WriteJSON(w, http.StatusOK, permissoes)
}

// SetPermissaoFerramenta concede ou ajusta a permissão (upsert no par
// usuário+ferramenta).
func (h *Handler) SetPermissaoFerramenta(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CanView bool `json:"can_view"`
		CanEdit bool `json:"can_edit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	usuarioID := pathParam(r, "usuarioID")
	ferramentaID := pathParam(r, "ferramentaID")

	if _, err := h.repo.GetUsuarioByID(r.Context(), usuarioID); err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
		return
	}
	if _, err := h.repo.GetFerramentaByID(r.Context(), ferramentaID); err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "ferramenta não encontrada", nil)
		return
	}

	if err := h.repo.SetPermissaoFerramenta(r.Context(), usuarioID, ferramentaID, payload.CanView, payload.CanEdit); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível salvar a permissão", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeletePermissaoFerramenta revoga a permissão do par usuário+ferramenta.
func (h *Handler) DeletePermissaoFerramenta(w http.ResponseWriter, r *http.Request) {
	err := h.repo.DeletePermissaoFerramenta(r.Context(), pathParam(r, "usuarioID"), pathParam(r, "ferramentaID"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível revogar a permissão", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "revogada"})
}
