package repo

import (
	"context"

	"github.com/rs/zerolog/log"
)

// RegistrarHistoricoInput descreve uma entrada de auditoria.
type RegistrarHistoricoInput struct {
	FerramentaID string
	UsuarioID    string
	Action       string
	Details      *string
	Local        Localizacao
}

// RegistrarHistorico grava a entrada de auditoria (apenas-inserção).
func (r *Repository) RegistrarHistorico(ctx context.Context, input RegistrarHistoricoInput) error {
	tipo, localID := input.Local.Colunas()

	var details any
	if input.Details != nil {
		details = *input.Details
	}

	_, err := r.store.InsertOne(ctx, "historico", map[string]any{
		"ferramenta_id": input.FerramentaID,
		"user_id":       input.UsuarioID,
		"action":        input.Action,
		"details":       details,
		"location_type": tipo,
		"location_id":   localID,
	})
	return err
}

// ListHistoricoByOwners devolve o histórico das ferramentas dos donos
// informados, desnormalizado com os nomes de usuário e ferramenta para
// exibição, do mais recente para o mais antigo.
func (r *Repository) ListHistoricoByOwners(ctx context.Context, ownerIDs []string) ([]Historico, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	sqlStr := `
        SELECT h.*,
               u.name AS user_name,
               f.name AS ferramenta_name
        FROM historico h
        LEFT JOIN users u ON h.user_id = u.id
        LEFT JOIN ferramentas f ON h.ferramenta_id = f.id
        WHERE f.owner_id IN (` + inPlaceholders(len(ownerIDs)) + `)
        ORDER BY h.created_at DESC
    `

	rows, err := r.store.Query(ctx, sqlStr, anySlice(ownerIDs)...)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar histórico")
		return nil, nil
	}

	out := make([]Historico, 0, len(rows))
	for _, row := range rows {
		local, err := localizacaoDeColunas(row["location_type"], row["location_id"])
		if err != nil {
			log.Error().Err(err).Str("id", rowString(row, "id")).Msg("repo: histórico inconsistente")
			continue
		}
		out = append(out, Historico{
			ID:             rowString(row, "id"),
			FerramentaID:   rowString(row, "ferramenta_id"),
			UsuarioID:      rowString(row, "user_id"),
			Action:         rowString(row, "action"),
			Details:        rowStringPtr(row, "details"),
			Local:          local,
			CriadoEm:       rowString(row, "created_at"),
			UsuarioNome:    rowString(row, "user_name"),
			FerramentaNome: rowString(row, "ferramenta_name"),
		})
	}
	return out, nil
}
