package repo

import (
	"context"

	"github.com/rs/zerolog/log"
)

func scanEstabelecimento(row map[string]any) Estabelecimento {
	return Estabelecimento{
		ID:           rowString(row, "id"),
		Nome:         rowString(row, "name"),
		Endereco:     rowString(row, "endereco"),
		OwnerID:      rowString(row, "owner_id"),
		CriadoEm:     rowString(row, "created_at"),
		AtualizadoEm: rowString(row, "updated_at"),
	}
}

// ListEstabelecimentosByOwners lista depósitos de qualquer um dos donos.
func (r *Repository) ListEstabelecimentosByOwners(ctx context.Context, ownerIDs []string) ([]Estabelecimento, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	rows, err := r.store.SelectAll(ctx, "estabelecimentos",
		"owner_id IN ("+inPlaceholders(len(ownerIDs))+")", anySlice(ownerIDs)...)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar estabelecimentos")
		return nil, nil
	}
	out := make([]Estabelecimento, 0, len(rows))
	for _, row := range rows {
		out = append(out, scanEstabelecimento(row))
	}
	return out, nil
}

// GetEstabelecimentoByID busca depósito pelo identificador.
func (r *Repository) GetEstabelecimentoByID(ctx context.Context, id string) (*Estabelecimento, error) {
	row, err := r.store.SelectOne(ctx, "estabelecimentos", "id = ?", id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	e := scanEstabelecimento(row)
	return &e, nil
}

// CreateEstabelecimento insere o depósito e devolve o registro
// persistido. id vazio deixa a geração com a camada de tabela.
func (r *Repository) CreateEstabelecimento(ctx context.Context, id, nome, endereco, ownerID string) (*Estabelecimento, error) {
	fields := map[string]any{
		"name":     nome,
		"endereco": endereco,
		"owner_id": ownerID,
	}
	if id != "" {
		fields["id"] = id
	}
	id, err := r.store.InsertOne(ctx, "estabelecimentos", fields)
	if err != nil {
		return nil, err
	}
	return r.GetEstabelecimentoByID(ctx, id)
}

// UpdateEstabelecimento atualiza os campos informados.
func (r *Repository) UpdateEstabelecimento(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.store.UpdateOne(ctx, "estabelecimentos", id, fields)
}

// DeleteEstabelecimento remove o depósito.
func (r *Repository) DeleteEstabelecimento(ctx context.Context, id string) error {
	return r.store.DeleteOne(ctx, "estabelecimentos", id)
}
