package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/praticaeng/obrasflow/internal/dual"
	"github.com/praticaeng/obrasflow/internal/remote"
	"github.com/praticaeng/obrasflow/internal/repo"
)

// ListObraImagens devolve as imagens de uma obra, ordenadas.
func (h *Handler) ListObraImagens(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	obraID := pathParam(r, "id")

	ok, err := h.perms.HasObraPermission(r.Context(), usuario, obraID)
	if err != nil || !ok {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem permissão para esta obra", nil)
		return
	}

	var remoto func(context.Context) ([]repo.ObraImage, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) ([]repo.ObraImage, error) {
			rows, err := h.remote.Select(ctx, "obra_images", remote.Filtro{
				Eq:      map[string]any{"obra_id": obraID},
				OrderBy: "display_order",
			})
			if err != nil {
				return nil, err
			}
			imagens := make([]repo.ObraImage, 0, len(rows))
			for _, row := range rows {
				imagens = append(imagens, repo.ObraImageFromRow(row))
			}
			return imagens, nil
		}
	}

	res, err := dual.Ler(r.Context(), "obra_images.list", remoto, func(ctx context.Context) ([]repo.ObraImage, error) {
		return h.repo.ListObraImages(ctx, obraID)
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar imagens", nil)
		return
	}

	WriteJSON(w, http.StatusOK, listPayload(res.Valor, res.Origem))
}

// CreateObraImagem anexa a URL de uma imagem à obra. O upload do arquivo
// em si acontece fora desta API.
func (h *Handler) CreateObraImagem(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	obraID := pathParam(r, "id")

	ok, err := h.perms.HasObraPermission(r.Context(), usuario, obraID)
	if err != nil || !ok {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem permissão para esta obra", nil)
		return
	}

	var payload struct {
		ImageURL     string `json:"image_url"`
		Description  string `json:"description"`
		DisplayOrder int64  `json:"display_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.ImageURL) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "image_url é obrigatória", nil)
		return
	}

	imagem, err := h.repo.CreateObraImage(r.Context(), obraID, payload.ImageURL, payload.Description, payload.DisplayOrder, usuario.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível salvar a imagem", nil)
		return
	}

	WriteJSON(w, http.StatusCreated, imagem)
}

// DeleteObraImagem remove o anexo de imagem.
func (h *Handler) DeleteObraImagem(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	obraID := pathParam(r, "id")

	ok, err := h.perms.HasObraPermission(r.Context(), usuario, obraID)
	if err != nil || !ok {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem permissão para esta obra", nil)
		return
	}

	if err := h.repo.DeleteObraImage(r.Context(), pathParam(r, "imagemID")); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover a imagem", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removida"})
}
