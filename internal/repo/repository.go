package repo

import (
	"context"
)

// tableStore é o contrato que o repositório exige da camada genérica de
// acesso a tabelas (implementado por *store.Engine).
type tableStore interface {
	Query(ctx context.Context, sql string, params ...any) ([]map[string]any, error)
	Exec(ctx context.Context, sql string, params ...any) error
	InsertOne(ctx context.Context, table string, fields map[string]any) (string, error)
	UpdateOne(ctx context.Context, table, id string, fields map[string]any) error
	DeleteOne(ctx context.Context, table, id string) error
	SelectAll(ctx context.Context, table, where string, params ...any) ([]map[string]any, error)
	SelectOne(ctx context.Context, table, where string, params ...any) (map[string]any, error)
}

// Repository provê as operações tipadas por entidade sobre a base embutida.
type Repository struct {
	store tableStore
}

// New cria o repositório sobre a camada genérica informada.
func New(store tableStore) *Repository {
	return &Repository{store: store}
}

// inPlaceholders monta a lista "?, ?, ?" para cláusulas IN.
func inPlaceholders(n int) string {
	if n == 0 {
		return ""
	}
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, '?')
	}
	return string(out)
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// Conversões defensivas dos mapas coluna-valor da camada genérica.

func rowString(row map[string]any, col string) string {
	switch v := row[col].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func rowStringPtr(row map[string]any, col string) *string {
	if v, ok := row[col].(string); ok {
		return &v
	}
	return nil
}

func rowFloatPtr(row map[string]any, col string) *float64 {
	switch v := row[col].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

func rowIntPtr(row map[string]any, col string) *int64 {
	switch v := row[col].(type) {
	case int64:
		return &v
	case float64:
		i := int64(v)
		return &i
	}
	return nil
}

func rowInt(row map[string]any, col string) int64 {
	if v := rowIntPtr(row, col); v != nil {
		return *v
	}
	return 0
}

func rowBool(row map[string]any, col string) bool {
	return rowInt(row, col) != 0
}
