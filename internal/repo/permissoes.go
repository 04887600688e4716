package repo

import (
	"context"
)

func boolInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// ListPermissoesObraByUsuario lista as permissões de obra do usuário.
func (r *Repository) ListPermissoesObraByUsuario(ctx context.Context, usuarioID string) ([]PermissaoObra, error) {
	rows, err := r.store.SelectAll(ctx, "user_obra_permissions", "user_id = ?", usuarioID)
	if err != nil {
		return nil, err
	}
	out := make([]PermissaoObra, 0, len(rows))
	for _, row := range rows {
		out = append(out, PermissaoObra{
			ID:        rowString(row, "id"),
			UsuarioID: rowString(row, "user_id"),
			ObraID:    rowString(row, "obra_id"),
			CanView:   rowBool(row, "can_view"),
			CanEdit:   rowBool(row, "can_edit"),
			CriadoEm:  rowString(row, "created_at"),
		})
	}
	return out, nil
}

// ListPermissoesFerramentaByUsuario lista as permissões de ferramenta.
func (r *Repository) ListPermissoesFerramentaByUsuario(ctx context.Context, usuarioID string) ([]PermissaoFerramenta, error) {
	rows, err := r.store.SelectAll(ctx, "user_ferramenta_permissions", "user_id = ?", usuarioID)
	if err != nil {
		return nil, err
	}
	out := make([]PermissaoFerramenta, 0, len(rows))
	for _, row := range rows {
		out = append(out, PermissaoFerramenta{
			ID:           rowString(row, "id"),
			UsuarioID:    rowString(row, "user_id"),
			FerramentaID: rowString(row, "ferramenta_id"),
			CanView:      rowBool(row, "can_view"),
			CanEdit:      rowBool(row, "can_edit"),
			CriadoEm:     rowString(row, "created_at"),
		})
	}
	return out, nil
}

// SetPermissaoObra aplica upsert pela unicidade (user_id, obra_id):
// seleciona a linha existente e atualiza, ou insere quando ausente. A
// invariante fica garantida na aplicação além da constraint declarada.
// As tabelas de permissão não têm updated_at, então a atualização não
// passa pelo UpdateOne genérico.
func (r *Repository) SetPermissaoObra(ctx context.Context, usuarioID, obraID string, canView, canEdit bool) error {
	existing, err := r.store.SelectOne(ctx, "user_obra_permissions",
		"user_id = ? AND obra_id = ?", usuarioID, obraID)
	if err != nil {
		return err
	}

	if existing != nil {
		return r.store.Exec(ctx,
			"UPDATE user_obra_permissions SET can_view = ?, can_edit = ? WHERE id = ?",
			boolInt(canView), boolInt(canEdit), rowString(existing, "id"))
	}

	_, err = r.store.InsertOne(ctx, "user_obra_permissions", map[string]any{
		"user_id":  usuarioID,
		"obra_id":  obraID,
		"can_view": boolInt(canView),
		"can_edit": boolInt(canEdit),
	})
	return err
}

// SetPermissaoFerramenta aplica o mesmo upsert para ferramentas.
func (r *Repository) SetPermissaoFerramenta(ctx context.Context, usuarioID, ferramentaID string, canView, canEdit bool) error {
	existing, err := r.store.SelectOne(ctx, "user_ferramenta_permissions",
		"user_id = ? AND ferramenta_id = ?", usuarioID, ferramentaID)
	if err != nil {
		return err
	}

	if existing != nil {
		return r.store.Exec(ctx,
			"UPDATE user_ferramenta_permissions SET can_view = ?, can_edit = ? WHERE id = ?",
			boolInt(canView), boolInt(canEdit), rowString(existing, "id"))
	}

	_, err = r.store.InsertOne(ctx, "user_ferramenta_permissions", map[string]any{
		"user_id":       usuarioID,
		"ferramenta_id": ferramentaID,
		"can_view":      boolInt(canView),
		"can_edit":      boolInt(canEdit),
	})
	return err
}

// DeletePermissaoObra remove a permissão do par, se existir.
func (r *Repository) DeletePermissaoObra(ctx context.Context, usuarioID, obraID string) error {
	existing, err := r.store.SelectOne(ctx, "user_obra_permissions",
		"user_id = ? AND obra_id = ?", usuarioID, obraID)
	if err != nil || existing == nil {
		return err
	}
	return r.store.DeleteOne(ctx, "user_obra_permissions", rowString(existing, "id"))
}

// DeletePermissaoFerramenta remove a permissão do par, se existir.
func (r *Repository) DeletePermissaoFerramenta(ctx context.Context, usuarioID, ferramentaID string) error {
	existing, err := r.store.SelectOne(ctx, "user_ferramenta_permissions",
		"user_id = ? AND ferramenta_id = ?", usuarioID, ferramentaID)
	if err != nil || existing == nil {
		return err
	}
	return r.store.DeleteOne(ctx, "user_ferramenta_permissions", rowString(existing, "id"))
}
