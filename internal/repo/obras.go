package repo

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

func scanObra(row map[string]any) Obra {
	return Obra{
		ID:           rowString(row, "id"),
		Title:        rowString(row, "title"),
		Description:  rowString(row, "description"),
		Endereco:     rowString(row, "endereco"),
		Status:       rowString(row, "status"),
		OwnerID:      rowString(row, "owner_id"),
		StartDate:    rowString(row, "start_date"),
		EndDate:      rowStringPtr(row, "end_date"),
		Engenheiro:   rowStringPtr(row, "engenheiro"),
		ImageURL:     rowStringPtr(row, "image_url"),
		CriadoEm:     rowString(row, "created_at"),
		AtualizadoEm: rowString(row, "updated_at"),
	}
}

func (r *Repository) listObras(ctx context.Context, where string, params []any) ([]Obra, error) {
	rows, err := r.store.SelectAll(ctx, "obras", where, params...)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar obras")
		return nil, nil
	}
	out := make([]Obra, 0, len(rows))
	for _, row := range rows {
		out = append(out, scanObra(row))
	}
	return out, nil
}

// ListObrasByOwners lista obras de qualquer um dos donos informados.
func (r *Repository) ListObrasByOwners(ctx context.Context, ownerIDs []string) ([]Obra, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	return r.listObras(ctx, "owner_id IN ("+inPlaceholders(len(ownerIDs))+")", anySlice(ownerIDs))
}

// ListObrasAtivasByOwners lista apenas as obras em andamento.
func (r *Repository) ListObrasAtivasByOwners(ctx context.Context, ownerIDs []string) ([]Obra, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	return r.listObras(ctx, "owner_id IN ("+inPlaceholders(len(ownerIDs))+") AND status = 'ativa'", anySlice(ownerIDs))
}

// GetObraByID busca obra pelo identificador.
func (r *Repository) GetObraByID(ctx context.Context, id string) (*Obra, error) {
	row, err := r.store.SelectOne(ctx, "obras", "id = ?", id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	obra := scanObra(row)
	return &obra, nil
}

// CreateObraInput reúne os campos de criação de obra. ID vazio deixa a
// geração com a camada de tabela.
type CreateObraInput struct {
	ID          string
	Title       string
	Description string
	Endereco    string
	Status      string
	OwnerID     string
	StartDate   string
	EndDate     *string
	Engenheiro  *string
	ImageURL    *string
}

// CreateObra insere a obra e devolve o registro persistido.
func (r *Repository) CreateObra(ctx context.Context, input CreateObraInput) (*Obra, error) {
	if input.EndDate != nil && input.StartDate != "" && *input.EndDate < input.StartDate {
		return nil, errors.New("end_date anterior a start_date")
	}

	fields := map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"endereco":    input.Endereco,
		"owner_id":    input.OwnerID,
	}
	if input.ID != "" {
		fields["id"] = input.ID
	}
	if input.Status != "" {
		fields["status"] = input.Status
	}
	if input.StartDate != "" {
		fields["start_date"] = input.StartDate
	}
	if input.EndDate != nil {
		fields["end_date"] = *input.EndDate
	}
	if input.Engenheiro != nil {
		fields["engenheiro"] = *input.Engenheiro
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
	}

	id, err := r.store.InsertOne(ctx, "obras", fields)
	if err != nil {
		return nil, err
	}
	return r.GetObraByID(ctx, id)
}

// UpdateObra atualiza os campos informados (atualização parcial).
func (r *Repository) UpdateObra(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.store.UpdateOne(ctx, "obras", id, fields)
}

// DeleteObra remove a obra; imagens e permissões associadas caem por cascade.
func (r *Repository) DeleteObra(ctx context.Context, id string) error {
	return r.store.DeleteOne(ctx, "obras", id)
}
