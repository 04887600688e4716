package repo

import (
	"context"

	"github.com/rs/zerolog/log"
)

func scanObraImage(row map[string]any) ObraImage {
	return ObraImage{
		ID:           rowString(row, "id"),
		ObraID:       rowString(row, "obra_id"),
		ImageURL:     rowString(row, "image_url"),
		Description:  rowString(row, "description"),
		DisplayOrder: rowInt(row, "display_order"),
		UploadedBy:   rowString(row, "uploaded_by"),
		CriadoEm:     rowString(row, "created_at"),
	}
}

// ListObraImages lista os anexos da obra em ordem de exibição.
func (r *Repository) ListObraImages(ctx context.Context, obraID string) ([]ObraImage, error) {
	rows, err := r.store.SelectAll(ctx, "obra_images",
		"obra_id = ? ORDER BY display_order, created_at", obraID)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar imagens de obra")
		return nil, nil
	}
	out := make([]ObraImage, 0, len(rows))
	for _, row := range rows {
		out = append(out, scanObraImage(row))
	}
	return out, nil
}

// CreateObraImage insere o anexo e devolve o registro persistido.
func (r *Repository) CreateObraImage(ctx context.Context, obraID, imageURL, description string, displayOrder int64, uploadedBy string) (*ObraImage, error) {
	id, err := r.store.InsertOne(ctx, "obra_images", map[string]any{
		"obra_id":       obraID,
		"image_url":     imageURL,
		"description":   description,
		"display_order": displayOrder,
		"uploaded_by":   uploadedBy,
	})
	if err != nil {
		return nil, err
	}
	row, err := r.store.SelectOne(ctx, "obra_images", "id = ?", id)
	if err != nil || row == nil {
		return nil, err
	}
	img := scanObraImage(row)
	return &img, nil
}

// DeleteObraImage remove o anexo.
func (r *Repository) DeleteObraImage(ctx context.Context, id string) error {
	return r.store.DeleteOne(ctx, "obra_images", id)
}
