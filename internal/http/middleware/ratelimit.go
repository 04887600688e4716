package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Entradas ociosas por mais tempo que isso são varridas na próxima busca.
const limiterMaxAge = 10 * time.Minute

// RateLimiter mantém um limiter token-bucket por chave, com expiração
// simples das chaves ociosas.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	entradas map[string]*limiterEntry
}

type limiterEntry struct {
	limiter *rate.Limiter
	usadaEm time.Time
}

// NewRateLimiter cria um limiter compartilhável entre múltiplas chaves.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(reqPerSec),
		burst:    burst,
		entradas: make(map[string]*limiterEntry),
	}
}

func (r *RateLimiter) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entrada, ok := r.entradas[key]; ok {
		entrada.usadaEm = time.Now()
		return entrada.limiter
	}

	lim := rate.NewLimiter(r.limit, r.burst)
	r.entradas[key] = &limiterEntry{limiter: lim, usadaEm: time.Now()}

	for k, entrada := range r.entradas {
		if time.Since(entrada.usadaEm) > limiterMaxAge {
			delete(r.entradas, k)
		}
	}

	return lim
}

// LimitByKey aplica rate limit por chave arbitrária. Chave vazia passa
// direto (a rota decide se exige identificação).
func (r *RateLimiter) LimitByKey(next http.Handler, keyFunc func(*http.Request) (string, bool)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key, ok := keyFunc(req)
		if !ok || key == "" {
			next.ServeHTTP(w, req)
			return
		}

		if !r.get(key).Allow() {
			w.Header().Set("Retry-After", "1")
			writeRateLimitError(w)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// IPRateLimit utiliza o IP remoto como chave, para as rotas públicas.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			return realIPFromRequest(r), true
		})
	}
}

// UserRateLimit utiliza o subject autenticado como chave.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			subject := GetSubject(r.Context())
			if subject == "" {
				return "", false
			}
			return subject, true
		})
	}
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    "RATE_LIMIT",
			"message": "Limite de requisições excedido",
		},
	})
}
