package repo

import (
	"context"

	"github.com/rs/zerolog/log"
)

func scanMovimentacao(row map[string]any) (Movimentacao, error) {
	de, err := localizacaoDeColunas(row["from_type"], row["from_id"])
	if err != nil {
		return Movimentacao{}, err
	}
	para, err := localizacaoDeColunas(row["to_type"], row["to_id"])
	if err != nil {
		return Movimentacao{}, err
	}
	return Movimentacao{
		ID:           rowString(row, "id"),
		FerramentaID: rowString(row, "ferramenta_id"),
		De:           de,
		Para:         para,
		UsuarioID:    rowString(row, "user_id"),
		Note:         rowString(row, "note"),
		CriadoEm:     rowString(row, "created_at"),
	}, nil
}

// RegistrarMovimentacaoInput descreve uma transferência de ferramenta.
type RegistrarMovimentacaoInput struct {
	FerramentaID string
	De           Localizacao
	Para         Localizacao // destino obrigatório
	UsuarioID    string
	Note         string
}

// RegistrarMovimentacao grava a movimentação e propaga o destino para a
// localização corrente da ferramenta (status em_uso). As duas escritas
// refletem a mudança ou nenhuma delas: se a atualização da ferramenta
// falhar, a movimentação recém-inserida é desfeita.
func (r *Repository) RegistrarMovimentacao(ctx context.Context, input RegistrarMovimentacaoInput) (*Movimentacao, error) {
	toTipo, toID := input.Para.Colunas()
	fromTipo, fromID := input.De.Colunas()

	id, err := r.store.InsertOne(ctx, "movimentacoes", map[string]any{
		"ferramenta_id": input.FerramentaID,
		"from_type":     fromTipo,
		"from_id":       fromID,
		"to_type":       toTipo,
		"to_id":         toID,
		"user_id":       input.UsuarioID,
		"note":          input.Note,
	})
	if err != nil {
		return nil, err
	}

	err = r.store.UpdateOne(ctx, "ferramentas", input.FerramentaID, map[string]any{
		"current_type": toTipo,
		"current_id":   toID,
		"status":       FerramentaEmUso,
	})
	if err != nil {
		if delErr := r.store.DeleteOne(ctx, "movimentacoes", id); delErr != nil {
			log.Error().Err(delErr).Str("movimentacao", id).
				Msg("repo: falha ao desfazer movimentação órfã")
		}
		return nil, err
	}

	row, err := r.store.SelectOne(ctx, "movimentacoes", "id = ?", id)
	if err != nil || row == nil {
		return nil, err
	}
	mov, err := scanMovimentacao(row)
	if err != nil {
		return nil, err
	}
	return &mov, nil
}

// ListMovimentacoesByFerramenta lista o log de transferências da
// ferramenta, mais recente primeiro.
func (r *Repository) ListMovimentacoesByFerramenta(ctx context.Context, ferramentaID string) ([]Movimentacao, error) {
	rows, err := r.store.SelectAll(ctx, "movimentacoes",
		"ferramenta_id = ? ORDER BY created_at DESC", ferramentaID)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar movimentações")
		return nil, nil
	}
	out := make([]Movimentacao, 0, len(rows))
	for _, row := range rows {
		mov, err := scanMovimentacao(row)
		if err != nil {
			log.Error().Err(err).Str("id", rowString(row, "id")).Msg("repo: movimentação inconsistente")
			continue
		}
		out = append(out, mov)
	}
	return out, nil
}
