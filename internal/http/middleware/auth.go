package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/praticaeng/obrasflow/internal/auth"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRole    contextKey = "role"
	ContextKeyCNPJ    contextKey = "cnpj"
	ContextKeyHostID  contextKey = "host_id"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			ctx = context.WithValue(ctx, ContextKeyCNPJ, claims.CNPJ)
			if claims.HostID != nil {
				ctx = context.WithValue(ctx, ContextKeyHostID, *claims.HostID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetRole recupera o papel do usuário autenticado.
func GetRole(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRole).(string)
	return val
}

// GetCNPJ recupera o cnpj da empresa do usuário autenticado.
func GetCNPJ(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyCNPJ).(string)
	return val
}

// GetHostID recupera o host do funcionário; vazio para hosts.
func GetHostID(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyHostID).(string)
	return val
}

// RequireHost restringe a rota a usuários com papel de host.
func RequireHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(GetRole(r.Context()), "host") {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a hosts")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
