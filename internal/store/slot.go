package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slot é o armazenamento durável que guarda a imagem serializada da base.
// A capacidade pode ser finita: um Set rejeitado não derruba a mutação que
// o originou (o estado em memória permanece correto).
type Slot interface {
	Get(ctx context.Context) ([]byte, bool, error)
	Set(ctx context.Context, data []byte) error
}

// FileSlot persiste a imagem em um arquivo local.
type FileSlot struct {
	Path string
}

// Get lê a imagem gravada, devolvendo false quando o arquivo não existe.
func (s *FileSlot) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set grava a imagem de forma atômica (arquivo temporário + rename).
func (s *FileSlot) Set(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

type redisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisSlot guarda a imagem em uma chave do Redis, para implantações sem
// disco persistente.
type RedisSlot struct {
	client redisCommander
	key    string
}

// NewRedisSlot cria o slot apontando para a chave informada.
func NewRedisSlot(client *redis.Client, key string) *RedisSlot {
	return &RedisSlot{client: client, key: key}
}

// Get lê a imagem da chave, devolvendo false quando ausente.
func (s *RedisSlot) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set sobrescreve a imagem anterior, sem expiração.
func (s *RedisSlot) Set(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}
