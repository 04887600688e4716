package repo

import (
	"context"

	"github.com/rs/zerolog/log"
)

func scanFerramenta(row map[string]any) (Ferramenta, error) {
	local, err := localizacaoDeColunas(row["current_type"], row["current_id"])
	if err != nil {
		return Ferramenta{}, err
	}
	return Ferramenta{
		ID:                rowString(row, "id"),
		Nome:              rowString(row, "name"),
		Tipo:              rowString(row, "tipo"),
		Modelo:            rowString(row, "modelo"),
		Serial:            rowString(row, "serial"),
		Status:            rowString(row, "status"),
		Local:             local,
		CadastradoPor:     rowString(row, "cadastrado_por"),
		OwnerID:           rowString(row, "owner_id"),
		Descricao:         rowString(row, "descricao"),
		NF:                rowString(row, "nf"),
		NFImageURL:        rowStringPtr(row, "nf_image_url"),
		Data:              rowStringPtr(row, "data"),
		Valor:             rowFloatPtr(row, "valor"),
		TempoGarantiaDias: rowIntPtr(row, "tempo_garantia_dias"),
		Garantia:          rowString(row, "garantia"),
		Marca:             rowString(row, "marca"),
		NumeroLacre:       rowString(row, "numero_lacre"),
		NumeroPlaca:       rowString(row, "numero_placa"),
		Adesivo:           rowString(row, "adesivo"),
		Usuario:           rowString(row, "usuario"),
		Obra:              rowString(row, "obra"),
		ImageURL:          rowStringPtr(row, "image_url"),
		CriadoEm:          rowString(row, "created_at"),
		AtualizadoEm:      rowString(row, "updated_at"),
	}, nil
}

func (r *Repository) listFerramentas(ctx context.Context, where string, params []any) ([]Ferramenta, error) {
	rows, err := r.store.SelectAll(ctx, "ferramentas", where, params...)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar ferramentas")
		return nil, nil
	}
	out := make([]Ferramenta, 0, len(rows))
	for _, row := range rows {
		f, err := scanFerramenta(row)
		if err != nil {
			log.Error().Err(err).Str("id", rowString(row, "id")).Msg("repo: localização inconsistente")
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// ListFerramentasByOwners lista ferramentas de qualquer um dos donos.
func (r *Repository) ListFerramentasByOwners(ctx context.Context, ownerIDs []string) ([]Ferramenta, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	return r.listFerramentas(ctx, "owner_id IN ("+inPlaceholders(len(ownerIDs))+")", anySlice(ownerIDs))
}

// ListDesaparecidasByOwners lista apenas as ferramentas desaparecidas.
func (r *Repository) ListDesaparecidasByOwners(ctx context.Context, ownerIDs []string) ([]Ferramenta, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	return r.listFerramentas(ctx,
		"owner_id IN ("+inPlaceholders(len(ownerIDs))+") AND status = 'desaparecida'", anySlice(ownerIDs))
}

// GetFerramentaByID busca ferramenta pelo identificador.
func (r *Repository) GetFerramentaByID(ctx context.Context, id string) (*Ferramenta, error) {
	row, err := r.store.SelectOne(ctx, "ferramentas", "id = ?", id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	f, err := scanFerramenta(row)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFerramentaInput reúne os campos de criação de ferramenta. ID
// vazio deixa a geração com a camada de tabela.
type CreateFerramentaInput struct {
	ID                string
	Nome              string
	Tipo              string
	Modelo            string
	Serial            string
	Status            string
	Local             Localizacao
	CadastradoPor     string
	OwnerID           string
	Descricao         string
	NF                string
	NFImageURL        *string
	Data              *string
	Valor             *float64
	TempoGarantiaDias *int64
	Garantia          string
	Marca             string
	NumeroLacre       string
	NumeroPlaca       string
	Adesivo           string
	Usuario           string
	Obra              string
	ImageURL          *string
}

// CreateFerramenta insere a ferramenta e devolve o registro persistido.
func (r *Repository) CreateFerramenta(ctx context.Context, input CreateFerramentaInput) (*Ferramenta, error) {
	tipo, localID := input.Local.Colunas()

	fields := map[string]any{
		"name":           input.Nome,
		"tipo":           input.Tipo,
		"modelo":         input.Modelo,
		"serial":         input.Serial,
		"current_type":   tipo,
		"current_id":     localID,
		"cadastrado_por": input.CadastradoPor,
		"owner_id":       input.OwnerID,
		"descricao":      input.Descricao,
		"nf":             input.NF,
		"garantia":       input.Garantia,
		"marca":          input.Marca,
		"numero_lacre":   input.NumeroLacre,
		"numero_placa":   input.NumeroPlaca,
		"adesivo":        input.Adesivo,
		"usuario":        input.Usuario,
		"obra":           input.Obra,
	}
	if input.ID != "" {
		fields["id"] = input.ID
	}
	if input.Status != "" {
		fields["status"] = input.Status
	}
	if input.NFImageURL != nil {
		fields["nf_image_url"] = *input.NFImageURL
	}
	if input.Data != nil {
		fields["data"] = *input.Data
	}
	if input.Valor != nil {
		fields["valor"] = *input.Valor
	}
	if input.TempoGarantiaDias != nil {
		fields["tempo_garantia_dias"] = *input.TempoGarantiaDias
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
	}

	id, err := r.store.InsertOne(ctx, "ferramentas", fields)
	if err != nil {
		return nil, err
	}
	return r.GetFerramentaByID(ctx, id)
}

// UpdateFerramenta atualiza os campos informados.
func (r *Repository) UpdateFerramenta(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.store.UpdateOne(ctx, "ferramentas", id, fields)
}

// DeleteFerramenta remove a ferramenta; movimentações, histórico e
// permissões associadas caem por cascade.
func (r *Repository) DeleteFerramenta(ctx context.Context, id string) error {
	return r.store.DeleteOne(ctx, "ferramentas", id)
}
