package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praticaeng/obrasflow/internal/dual"
)

func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func anyValues(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// listPayload embala coleções junto da origem (remota ou local) da leitura.
func listPayload[T any](itens []T, origem dual.Origem) map[string]any {
	if itens == nil {
		itens = []T{}
	}
	return map[string]any{
		"items":  itens,
		"origem": origem.String(),
	}
}
