package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/praticaeng/obrasflow/internal/dual"
	"github.com/praticaeng/obrasflow/internal/remote"
	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/util"
)

// ListObras lista as obras da empresa, filtradas pela permissão do
// usuário. A leitura prefere o backend remoto e cai para a base embutida.
func (h *Handler) ListObras(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	owners := h.ownerIDs(r, usuario)

	// ?status=ativa restringe às obras em andamento, usado na escolha
	// de destino de movimentação.
	somenteAtivas := r.URL.Query().Get("status") == repo.ObraAtiva

	var remoto func(context.Context) ([]repo.Obra, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) ([]repo.Obra, error) {
			filtro := remote.Filtro{
				In:      map[string][]any{"owner_id": anyValues(owners)},
				OrderBy: "created_at",
				Desc:    true,
			}
			if somenteAtivas {
				filtro.Eq = map[string]any{"status": repo.ObraAtiva}
			}
			rows, err := h.remote.Select(ctx, "obras", filtro)
			if err != nil {
				return nil, err
			}
			obras := make([]repo.Obra, 0, len(rows))
			for _, row := range rows {
				obras = append(obras, repo.ObraFromRow(row))
			}
			return obras, nil
		}
	}

	res, err := dual.Ler(r.Context(), "obras.list", remoto, func(ctx context.Context) ([]repo.Obra, error) {
		if somenteAtivas {
			return h.repo.ListObrasAtivasByOwners(ctx, owners)
		}
		return h.repo.ListObrasByOwners(ctx, owners)
	})
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "não foi possível listar obras", nil)
		return
	}

	visiveis, err := h.perms.FilterObras(r.Context(), usuario, res.Valor)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "não foi possível verificar permissões", nil)
		return
	}

	WriteJSON(w, http.StatusOK, listPayload(visiveis, res.Origem))
}

// GetObra devolve uma obra, sujeita à permissão do usuário.
func (h *Handler) GetObra(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	ok, err := h.perms.HasObraPermission(r.Context(), usuario, id)
	if err != nil {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "não foi possível verificar permissões", nil)
		return
	}
	if !ok {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem permissão para esta obra", nil)
		return
	}

	var remoto func(context.Context) (*repo.Obra, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Obra, error) {
			rows, err := h.remote.Select(ctx, "obras", remote.Filtro{
				Eq:    map[string]any{"id": id},
				Limit: 1,
			})
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, repo.ErrNotFound
			}
			obra := repo.ObraFromRow(rows[0])
			return &obra, nil
		}
	}

	res, err := dual.Ler(r.Context(), "obras.get", remoto, func(ctx context.Context) (*repo.Obra, error) {
		return h.repo.GetObraByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "obra não encontrada", nil)
			return
		}
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "não foi possível carregar a obra", nil)
		return
	}

	WriteJSON(w, http.StatusOK, res.Valor)
}

type obraPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Endereco    string  `json:"endereco"`
	Status      string  `json:"status"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Engenheiro  *string `json:"engenheiro"`
	ImageURL    *string `json:"image_url"`
}

// CreateObra cadastra uma obra em nome do usuário autenticado. O id é
// gerado antes da escrita para valer igual nos dois backends.
func (h *Handler) CreateObra(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	var payload obraPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.StartDate) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "title e start_date são obrigatórios", nil)
		return
	}

	status := payload.Status
	if status == "" {
		status = repo.ObraAtiva
	}

	id := util.NewID()

	var remoto func(context.Context) (*repo.Obra, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Obra, error) {
			row, err := h.remote.InsertReturning(ctx, "obras", map[string]any{
				"id":          id,
				"title":       payload.Title,
				"description": payload.Description,
				"endereco":    payload.Endereco,
				"status":      status,
				"owner_id":    usuario.ID,
				"start_date":  payload.StartDate,
				"end_date":    ptrOrNil(payload.EndDate),
				"engenheiro":  ptrOrNil(payload.Engenheiro),
				"image_url":   ptrOrNil(payload.ImageURL),
			})
			if err != nil {
				return nil, err
			}
			obra := repo.ObraFromRow(row)
			return &obra, nil
		}
	}

	res, err := dual.Gravar(r.Context(), "obras.create", remoto, func(ctx context.Context) (*repo.Obra, error) {
		return h.repo.CreateObra(ctx, repo.CreateObraInput{
			ID:          id,
			Title:       payload.Title,
			Description: payload.Description,
			Endereco:    payload.Endereco,
			Status:      status,
			OwnerID:     usuario.ID,
			StartDate:   payload.StartDate,
			EndDate:     payload.EndDate,
			Engenheiro:  payload.Engenheiro,
			ImageURL:    payload.ImageURL,
		})
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusCreated, res.Valor)
}

// UpdateObra aplica alterações parciais a uma obra.
func (h *Handler) UpdateObra(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	ok, err := h.perms.HasObraPermission(r.Context(), usuario, id)
	if err != nil || !ok {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem permissão para esta obra", nil)
		return
	}

	fields, errMsg := decodeObraFields(r)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", errMsg, nil)
		return
	}

	var remoto func(context.Context) (*repo.Obra, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Obra, error) {
			rows, err := h.remote.UpdateReturning(ctx, "obras", remote.Filtro{
				Eq: map[string]any{"id": id},
			}, fields)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, repo.ErrNotFound
			}
			obra := repo.ObraFromRow(rows[0])
			return &obra, nil
		}
	}

	res, err := dual.Gravar(r.Context(), "obras.update", remoto, func(ctx context.Context) (*repo.Obra, error) {
		if err := h.repo.UpdateObra(ctx, id, fields); err != nil {
			return nil, err
		}
		return h.repo.GetObraByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "obra não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar a obra", nil)
		return
	}

	WriteJSON(w, http.StatusOK, res.Valor)
}

// DeleteObra remove uma obra. Exclusão é sempre de host; funcionário
// nunca tem permissão de exclusão.
func (h *Handler) DeleteObra(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	if usuario.Role != repo.RoleHost {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "apenas hosts podem excluir obras", nil)
		return
	}
	id := pathParam(r, "id")

	var remoto func(context.Context) (bool, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (bool, error) {
			if err := h.remote.DeleteWhere(ctx, "obras", remote.Filtro{
				Eq: map[string]any{"id": id},
			}); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if _, err := dual.Gravar(r.Context(), "obras.delete", remoto, func(ctx context.Context) (bool, error) {
		if err := h.repo.DeleteObra(ctx, id); err != nil {
			return false, err
		}
		return true, nil
	}); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível excluir a obra", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removido"})
}

// decodeObraFields aceita apenas colunas editáveis de obra.
func decodeObraFields(r *http.Request) (map[string]any, string) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, "JSON inválido"
	}

	permitidas := map[string]bool{
		"title": true, "description": true, "endereco": true,
		"status": true, "start_date": true, "end_date": true,
		"engenheiro": true, "image_url": true,
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if !permitidas[k] {
			return nil, "campo não editável: " + k
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil, "nenhum campo para atualizar"
	}

	if status, ok := fields["status"].(string); ok {
		if status != repo.ObraAtiva && status != repo.ObraFinalizada {
			return nil, "status inválido"
		}
	}

	return fields, ""
}

func ptrOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
