package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends válidos para o slot durável da base embutida.
const (
	SlotFile  = "file"
	SlotRedis = "redis"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	RemoteDSN       string
	RedisURL        string
	SlotBackend     string
	SlotPath        string
	SlotRedisKey    string
	ScratchDir      string
	JWTSecret       string
	JWTAccessTTL    time.Duration
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
// REMOTE_DSN vazio desliga o backend remoto (a API opera apenas com a
// base embutida); REDIS_URL vazio desliga o cache de ferramentas.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.RemoteDSN = strings.TrimSpace(getEnv("REMOTE_DSN", ""))
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.SlotBackend = strings.ToLower(strings.TrimSpace(getEnv("STORE_SLOT", SlotFile)))
	switch cfg.SlotBackend {
	case SlotFile:
		cfg.SlotPath = getEnv("STORE_SLOT_PATH", "data/obrasflow.db.img")
	case SlotRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL obrigatório quando STORE_SLOT=redis")
		}
		cfg.SlotRedisKey = getEnv("STORE_SLOT_KEY", "obrasflow_database")
	default:
		return nil, errors.New("STORE_SLOT deve ser file ou redis")
	}

	cfg.ScratchDir = getEnv("STORE_SCRATCH_DIR", os.TempDir())

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 8*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
