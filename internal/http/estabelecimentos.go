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

// ListEstabelecimentos lista os depósitos da empresa.
func (h *Handler) ListEstabelecimentos(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	owners := h.ownerIDs(r, usuario)

	var remoto func(context.Context) ([]repo.Estabelecimento, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) ([]repo.Estabelecimento, error) {
			rows, err := h.remote.Select(ctx, "estabelecimentos", remote.Filtro{
				In:      map[string][]any{"owner_id": anyValues(owners)},
				OrderBy: "created_at",
				Desc:    true,
			})
			if err != nil {
				return nil, err
			}
			itens := make([]repo.Estabelecimento, 0, len(rows))
			for _, row := range rows {
				itens = append(itens, repo.EstabelecimentoFromRow(row))
			}
			return itens, nil
		}
	}

	res, err := dual.Ler(r.Context(), "estabelecimentos.list", remoto, func(ctx context.Context) ([]repo.Estabelecimento, error) {
		return h.repo.ListEstabelecimentosByOwners(ctx, owners)
	})
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "não foi possível listar estabelecimentos", nil)
		return
	}

	WriteJSON(w, http.StatusOK, listPayload(res.Valor, res.Origem))
}

// GetEstabelecimento devolve um depósito.
func (h *Handler) GetEstabelecimento(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usuarioAtual(r); err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	est, err := h.repo.GetEstabelecimentoByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "estabelecimento não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar o estabelecimento", nil)
		return
	}

	WriteJSON(w, http.StatusOK, est)
}

// CreateEstabelecimento cadastra um depósito.
func (h *Handler) CreateEstabelecimento(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	var payload struct {
		Nome     string `json:"name"`
		Endereco string `json:"endereco"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Nome) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "name é obrigatório", nil)
		return
	}

	id := util.NewID()

	var remoto func(context.Context) (*repo.Estabelecimento, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Estabelecimento, error) {
			row, err := h.remote.InsertReturning(ctx, "estabelecimentos", map[string]any{
				"id":       id,
				"name":     payload.Nome,
				"endereco": payload.Endereco,
				"owner_id": usuario.ID,
			})
			if err != nil {
				return nil, err
			}
			est := repo.EstabelecimentoFromRow(row)
			return &est, nil
		}
	}

	res, err := dual.Gravar(r.Context(), "estabelecimentos.create", remoto, func(ctx context.Context) (*repo.Estabelecimento, error) {
		return h.repo.CreateEstabelecimento(ctx, id, payload.Nome, payload.Endereco, usuario.ID)
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusCreated, res.Valor)
}

// UpdateEstabelecimento aplica alterações parciais a um depósito.
func (h *Handler) UpdateEstabelecimento(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usuarioAtual(r); err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	permitidas := map[string]bool{"name": true, "endereco": true}
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if !permitidas[k] {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "campo não editável: "+k, nil)
			return
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nenhum campo para atualizar", nil)
		return
	}

	var remoto func(context.Context) (*repo.Estabelecimento, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Estabelecimento, error) {
			rows, err := h.remote.UpdateReturning(ctx, "estabelecimentos", remote.Filtro{
				Eq: map[string]any{"id": id},
			}, fields)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, repo.ErrNotFound
			}
			est := repo.EstabelecimentoFromRow(rows[0])
			return &est, nil
		}
	}

	res, err := dual.Gravar(r.Context(), "estabelecimentos.update", remoto, func(ctx context.Context) (*repo.Estabelecimento, error) {
		if err := h.repo.UpdateEstabelecimento(ctx, id, fields); err != nil {
			return nil, err
		}
		return h.repo.GetEstabelecimentoByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "estabelecimento não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar o estabelecimento", nil)
		return
	}

	WriteJSON(w, http.StatusOK, res.Valor)
}

// DeleteEstabelecimento remove um depósito.
func (h *Handler) DeleteEstabelecimento(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	if usuario.Role != repo.RoleHost {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "apenas hosts podem excluir estabelecimentos", nil)
		return
	}
	id := pathParam(r, "id")

	var remoto func(context.Context) (bool, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (bool, error) {
			if err := h.remote.DeleteWhere(ctx, "estabelecimentos", remote.Filtro{
				Eq: map[string]any{"id": id},
			}); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if _, err := dual.Gravar(r.Context(), "estabelecimentos.delete", remoto, func(ctx context.Context) (bool, error) {
		if err := h.repo.DeleteEstabelecimento(ctx, id); err != nil {
			return false, err
		}
		return true, nil
	}); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível excluir o estabelecimento", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removido"})
}
