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

func ferramentasDeRows(rows []map[string]any) ([]repo.Ferramenta, error) {
	itens := make([]repo.Ferramenta, 0, len(rows))
	for _, row := range rows {
		f, err := repo.FerramentaFromRow(row)
		if err != nil {
			continue // linha com localização incoerente fica de fora
		}
		itens = append(itens, f)
	}
	return itens, nil
}

// ListFerramentas lista as ferramentas da empresa, com cache por cnpj.
func (h *Handler) ListFerramentas(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	if itens, ok := h.ferramentas.Get(r.Context(), usuario.CNPJ); ok {
		WriteJSON(w, http.StatusOK, map[string]any{"items": itens, "origem": "cache"})
		return
	}

	owners := h.ownerIDs(r, usuario)

	var remoto func(context.Context) ([]repo.Ferramenta, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) ([]repo.Ferramenta, error) {
			rows, err := h.remote.Select(ctx, "ferramentas", remote.Filtro{
				In:      map[string][]any{"owner_id": anyValues(owners)},
				OrderBy: "created_at",
				Desc:    true,
			})
			if err != nil {
				return nil, err
			}
			return ferramentasDeRows(rows)
		}
	}

	res, err := dual.Ler(r.Context(), "ferramentas.list", remoto, func(ctx context.Context) ([]repo.Ferramenta, error) {
		return h.repo.ListFerramentasByOwners(ctx, owners)
	})
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "não foi possível listar ferramentas", nil)
		return
	}

	h.ferramentas.Set(r.Context(), usuario.CNPJ, res.Valor)

	WriteJSON(w, http.StatusOK, listPayload(res.Valor, res.Origem))
}

// ListFerramentasDesaparecidas lista só as ferramentas desaparecidas.
func (h *Handler) ListFerramentasDesaparecidas(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	owners := h.ownerIDs(r, usuario)

	var remoto func(context.Context) ([]repo.Ferramenta, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) ([]repo.Ferramenta, error) {
			rows, err := h.remote.Select(ctx, "ferramentas", remote.Filtro{
				Eq:      map[string]any{"status": repo.FerramentaDesaparecida},
				In:      map[string][]any{"owner_id": anyValues(owners)},
				OrderBy: "created_at",
				Desc:    true,
			})
			if err != nil {
				return nil, err
			}
			return ferramentasDeRows(rows)
		}
	}

	res, err := dual.Ler(r.Context(), "ferramentas.desaparecidas", remoto, func(ctx context.Context) ([]repo.Ferramenta, error) {
		return h.repo.ListDesaparecidasByOwners(ctx, owners)
	})
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "não foi possível listar ferramentas", nil)
		return
	}

	WriteJSON(w, http.StatusOK, listPayload(res.Valor, res.Origem))
}

// GetFerramenta devolve uma ferramenta.
func (h *Handler) GetFerramenta(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usuarioAtual(r); err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	f, err := h.repo.GetFerramentaByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "ferramenta não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar a ferramenta", nil)
		return
	}

	WriteJSON(w, http.StatusOK, f)
}

type ferramentaPayload struct {
	Nome              string           `json:"name"`
	Tipo              string           `json:"tipo"`
	Modelo            string           `json:"modelo"`
	Serial            string           `json:"serial"`
	Status            string           `json:"status"`
	Local             repo.Localizacao `json:"local"`
	Descricao         string           `json:"descricao"`
	NF                string           `json:"nf"`
	NFImageURL        *string          `json:"nf_image_url"`
	Data              *string          `json:"data"`
	Valor             *float64         `json:"valor"`
	TempoGarantiaDias *int64           `json:"tempo_garantia_dias"`
	Garantia          string           `json:"garantia"`
	Marca             string           `json:"marca"`
	NumeroLacre       string           `json:"numero_lacre"`
	NumeroPlaca       string           `json:"numero_placa"`
	Adesivo           string           `json:"adesivo"`
	Usuario           string           `json:"usuario"`
	Obra              string           `json:"obra"`
	ImageURL          *string          `json:"image_url"`
}

// CreateFerramenta cadastra uma ferramenta e registra o histórico de
// cadastro.
func (h *Handler) CreateFerramenta(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	var payload ferramentaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Nome) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "name é obrigatório", nil)
		return
	}

	id := util.NewID()
	localTipo, localID := payload.Local.Colunas()

	var remoto func(context.Context) (*repo.Ferramenta, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Ferramenta, error) {
			fields := map[string]any{
				"id":             id,
				"name":           payload.Nome,
				"tipo":           payload.Tipo,
				"modelo":         payload.Modelo,
				"serial":         payload.Serial,
				"current_type":   localTipo,
				"current_id":     localID,
				"cadastrado_por": usuario.ID,
				"owner_id":       usuario.ID,
				"descricao":      payload.Descricao,
				"nf":             payload.NF,
				"nf_image_url":   ptrOrNil(payload.NFImageURL),
				"data":           ptrOrNil(payload.Data),
				"valor":          ptrOrNil(payload.Valor),
				"garantia":       payload.Garantia,
				"marca":          payload.Marca,
				"numero_lacre":   payload.NumeroLacre,
				"numero_placa":   payload.NumeroPlaca,
				"adesivo":        payload.Adesivo,
				"usuario":        payload.Usuario,
				"obra":           payload.Obra,
				"image_url":      ptrOrNil(payload.ImageURL),
			}
			if payload.Status != "" {
				fields["status"] = payload.Status
			}
			if payload.TempoGarantiaDias != nil {
				fields["tempo_garantia_dias"] = *payload.TempoGarantiaDias
			}
			row, err := h.remote.InsertReturning(ctx, "ferramentas", fields)
			if err != nil {
				return nil, err
			}
			f, err := repo.FerramentaFromRow(row)
			if err != nil {
				return nil, err
			}
			return &f, nil
		}
	}

	res, err := dual.Gravar(r.Context(), "ferramentas.create", remoto, func(ctx context.Context) (*repo.Ferramenta, error) {
		return h.repo.CreateFerramenta(ctx, repo.CreateFerramentaInput{
			ID:                id,
			Nome:              payload.Nome,
			Tipo:              payload.Tipo,
			Modelo:            payload.Modelo,
			Serial:            payload.Serial,
			Status:            payload.Status,
			Local:             payload.Local,
			CadastradoPor:     usuario.ID,
			OwnerID:           usuario.ID,
			Descricao:         payload.Descricao,
			NF:                payload.NF,
			NFImageURL:        payload.NFImageURL,
			Data:              payload.Data,
			Valor:             payload.Valor,
			TempoGarantiaDias: payload.TempoGarantiaDias,
			Garantia:          payload.Garantia,
			Marca:             payload.Marca,
			NumeroLacre:       payload.NumeroLacre,
			NumeroPlaca:       payload.NumeroPlaca,
			Adesivo:           payload.Adesivo,
			Usuario:           payload.Usuario,
			Obra:              payload.Obra,
			ImageURL:          payload.ImageURL,
		})
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	h.registrarHistorico(r, repo.RegistrarHistoricoInput{
		FerramentaID: id,
		UsuarioID:    usuario.ID,
		Action:       "cadastro",
		Local:        payload.Local,
	})
	h.ferramentas.Clear(r.Context(), usuario.CNPJ)

	WriteJSON(w, http.StatusCreated, res.Valor)
}

// UpdateFerramenta aplica alterações parciais a uma ferramenta.
func (h *Handler) UpdateFerramenta(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	fields, errMsg := decodeFerramentaFields(r)
	if errMsg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", errMsg, nil)
		return
	}

	var remoto func(context.Context) (*repo.Ferramenta, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (*repo.Ferramenta, error) {
			rows, err := h.remote.UpdateReturning(ctx, "ferramentas", remote.Filtro{
				Eq: map[string]any{"id": id},
			}, fields)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, repo.ErrNotFound
			}
			f, err := repo.FerramentaFromRow(rows[0])
			if err != nil {
				return nil, err
			}
			return &f, nil
		}
	}

	res, err := dual.Gravar(r.Context(), "ferramentas.update", remoto, func(ctx context.Context) (*repo.Ferramenta, error) {
		if err := h.repo.UpdateFerramenta(ctx, id, fields); err != nil {
			return nil, err
		}
		return h.repo.GetFerramentaByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "ferramenta não encontrada", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar a ferramenta", nil)
		return
	}

	if status, ok := fields["status"].(string); ok && status == repo.FerramentaDesaparecida {
		h.registrarHistorico(r, repo.RegistrarHistoricoInput{
			FerramentaID: id,
			UsuarioID:    usuario.ID,
			Action:       "desaparecimento",
			Local:        res.Valor.Local,
		})
	}
	h.ferramentas.Clear(r.Context(), usuario.CNPJ)

	WriteJSON(w, http.StatusOK, res.Valor)
}

// DeleteFerramenta remove uma ferramenta e tudo que depende dela.
func (h *Handler) DeleteFerramenta(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	if usuario.Role != repo.RoleHost {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "apenas hosts podem excluir ferramentas", nil)
		return
	}
	id := pathParam(r, "id")

	var remoto func(context.Context) (bool, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) (bool, error) {
			if err := h.remote.DeleteWhere(ctx, "ferramentas", remote.Filtro{
				Eq: map[string]any{"id": id},
			}); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if _, err := dual.Gravar(r.Context(), "ferramentas.delete", remoto, func(ctx context.Context) (bool, error) {
		if err := h.repo.DeleteFerramenta(ctx, id); err != nil {
			return false, err
		}
		return true, nil
	}); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível excluir a ferramenta", nil)
		return
	}

	h.ferramentas.Clear(r.Context(), usuario.CNPJ)

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removida"})
}

// decodeFerramentaFields aceita apenas colunas editáveis de ferramenta.
// Localização não entra aqui: mudança de local é movimentação.
func decodeFerramentaFields(r *http.Request) (map[string]any, string) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, "JSON inválido"
	}

	permitidas := map[string]bool{
		"name": true, "tipo": true, "modelo": true, "serial": true,
		"status": true, "descricao": true, "nf": true, "nf_image_url": true,
		"data": true, "valor": true, "tempo_garantia_dias": true,
		"garantia": true, "marca": true, "numero_lacre": true,
		"numero_placa": true, "adesivo": true, "usuario": true,
		"obra": true, "image_url": true,
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
		switch status {
		case repo.FerramentaDisponivel, repo.FerramentaEmUso, repo.FerramentaDesaparecida:
		default:
			return nil, "status inválido"
		}
	}

	return fields, ""
}
