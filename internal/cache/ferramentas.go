// Package cache guarda listagens quentes em Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/repo"
)

const ferramentasTTL = 5 * time.Minute

type redisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Ferramentas é o cache por empresa (cnpj) da listagem de ferramentas. Um ponteiro
// nil é válido e se comporta como cache desligado.
type Ferramentas struct {
	redis redisCommander
}

// NewFerramentas cria o cache sobre o cliente informado.
func NewFerramentas(client *redis.Client) *Ferramentas {
	if client == nil {
		return nil
	}
	return &Ferramentas{redis: client}
}

func chave(escopo string) string {
	return "ferramentas_cache:" + escopo
}

// Get devolve a listagem cacheada do escopo; qualquer erro vira cache miss.
func (c *Ferramentas) Get(ctx context.Context, escopo string) ([]repo.Ferramenta, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.redis.Get(ctx, chave(escopo)).Bytes()
	if err != nil {
		return nil, false
	}

	var itens []repo.Ferramenta
	if err := json.Unmarshal(payload, &itens); err != nil {
		log.Warn().Err(err).Msg("cache: payload de ferramentas inválido")
		return nil, false
	}
	return itens, true
}

// Set grava a listagem com TTL fixo; falhas são registradas, não propagadas.
func (c *Ferramentas) Set(ctx context.Context, escopo string, itens []repo.Ferramenta) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(itens)
	if err != nil {
		log.Warn().Err(err).Msg("cache: serialização de ferramentas falhou")
		return
	}
	if err := c.redis.Set(ctx, chave(escopo), payload, ferramentasTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: escrita de ferramentas falhou")
	}
}

// Clear invalida a listagem do escopo.
func (c *Ferramentas) Clear(ctx context.Context, escopo string) {
	if c == nil {
		return
	}
	if err := c.redis.Del(ctx, chave(escopo)).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: invalidação de ferramentas falhou")
	}
}
