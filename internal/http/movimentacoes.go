package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/dual"
	"github.com/praticaeng/obrasflow/internal/remote"
	"github.com/praticaeng/obrasflow/internal/repo"
)

// CreateMovimentacao registra a transferência de uma ferramenta e propaga
// a nova localização. A escrita acontece na base embutida (fonte das
// invariantes de atomicidade) e é espelhada no remoto em melhor esforço.
func (h *Handler) CreateMovimentacao(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	var payload struct {
		FerramentaID string           `json:"ferramenta_id"`
		Para         repo.Localizacao `json:"para"`
		Note         string           `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if payload.FerramentaID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "ferramenta_id é obrigatório", nil)
		return
	}
	if payload.Para.Vazia() {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "destino é obrigatório", nil)
		return
	}

	// Destino do tipo obra exige permissão sobre a obra.
	if tipo, ok := payload.Para.Tipo(); ok && tipo == repo.TipoObra {
		obraID, _ := payload.Para.ID()
		permitido, err := h.perms.HasObraPermission(r.Context(), usuario, obraID)
		if err != nil || !permitido {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem permissão para a obra de destino", nil)
			return
		}
	}

	ferramenta, err := h.repo.GetFerramentaByID(r.Context(), payload.FerramentaID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "ferramenta não encontrada", nil)
		return
	}

	mov, err := h.repo.RegistrarMovimentacao(r.Context(), repo.RegistrarMovimentacaoInput{
		FerramentaID: payload.FerramentaID,
		De:           ferramenta.Local,
		Para:         payload.Para,
		UsuarioID:    usuario.ID,
		Note:         payload.Note,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível registrar a movimentação", nil)
		return
	}

	h.registrarHistorico(r, repo.RegistrarHistoricoInput{
		FerramentaID: payload.FerramentaID,
		UsuarioID:    usuario.ID,
		Action:       "movimentacao",
		Local:        payload.Para,
	})
	h.ferramentas.Clear(r.Context(), usuario.CNPJ)

	if h.remote != nil {
		deTipo, deID := mov.De.Colunas()
		paraTipo, paraID := mov.Para.Colunas()
		if _, err := h.remote.InsertReturning(r.Context(), "movimentacoes", map[string]any{
			"id":            mov.ID,
			"ferramenta_id": mov.FerramentaID,
			"from_type":     deTipo,
			"from_id":       deID,
			"to_type":       paraTipo,
			"to_id":         paraID,
			"user_id":       mov.UsuarioID,
			"note":          mov.Note,
		}); err != nil {
			log.Warn().Err(err).Str("movimentacao", mov.ID).
				Msg("movimentacao: espelho remoto falhou")
		} else if _, err := h.remote.UpdateReturning(r.Context(), "ferramentas", remote.Filtro{
			Eq: map[string]any{"id": mov.FerramentaID},
		}, map[string]any{
			"current_type": paraTipo,
			"current_id":   paraID,
			"status":       repo.FerramentaEmUso,
		}); err != nil {
			log.Warn().Err(err).Str("ferramenta", mov.FerramentaID).
				Msg("movimentacao: atualização remota da ferramenta falhou")
		}
	}

	WriteJSON(w, http.StatusCreated, mov)
}

// ListMovimentacoes devolve o histórico de transferências de uma
// ferramenta, mais recente primeiro.
func (h *Handler) ListMovimentacoes(w http.ResponseWriter, r *http.Request) {
	if _, err := h.usuarioAtual(r); err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	id := pathParam(r, "id")

	var remoto func(context.Context) ([]repo.Movimentacao, error)
	if h.remote != nil {
		remoto = func(ctx context.Context) ([]repo.Movimentacao, error) {
			rows, err := h.remote.Select(ctx, "movimentacoes", remote.Filtro{
				Eq:      map[string]any{"ferramenta_id": id},
				OrderBy: "created_at",
				Desc:    true,
			})
			if err != nil {
				return nil, err
			}
			movs := make([]repo.Movimentacao, 0, len(rows))
			for _, row := range rows {
				mov, err := repo.MovimentacaoFromRow(row)
				if err != nil {
					log.Warn().Err(err).Msg("movimentacoes: linha remota descartada")
					continue
				}
				movs = append(movs, mov)
			}
			return movs, nil
		}
	}

	res, err := dual.Ler(r.Context(), "movimentacoes.list", remoto, func(ctx context.Context) ([]repo.Movimentacao, error) {
		return h.repo.ListMovimentacoesByFerramenta(ctx, id)
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar movimentações", nil)
		return
	}

	WriteJSON(w, http.StatusOK, listPayload(res.Valor, res.Origem))
}

// ListHistorico devolve a auditoria de ciclo de vida da empresa.
func (h *Handler) ListHistorico(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	owners := h.ownerIDs(r, usuario)

	historico, err := h.repo.ListHistoricoByOwners(r.Context(), owners)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar o histórico", nil)
		return
	}
	if historico == nil {
		historico = []repo.Historico{}
	}

	WriteJSON(w, http.StatusOK, historico)
}

// registrarHistorico grava a entrada de auditoria em melhor esforço: o
// fluxo principal nunca falha por causa dela.
func (h *Handler) registrarHistorico(r *http.Request, input repo.RegistrarHistoricoInput) {
	if err := h.repo.RegistrarHistorico(r.Context(), input); err != nil {
		log.Warn().Err(err).Str("ferramenta", input.FerramentaID).
			Msg("historico: registro falhou")
	}
}
