package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/auth"
	"github.com/praticaeng/obrasflow/internal/cache"
	"github.com/praticaeng/obrasflow/internal/config"
	internalhttp "github.com/praticaeng/obrasflow/internal/http"
	"github.com/praticaeng/obrasflow/internal/remote"
	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/service"
	"github.com/praticaeng/obrasflow/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	}

	var slot store.Slot
	switch cfg.SlotBackend {
	case config.SlotRedis:
		slot = store.NewRedisSlot(redisClient, cfg.SlotRedisKey)
	default:
		slot = &store.FileSlot{Path: cfg.SlotPath}
	}

	engine, err := store.Open(ctx, store.Options{Slot: slot, ScratchDir: cfg.ScratchDir})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer engine.Close()

	repository := repo.New(engine)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repository, jwtManager)
	ferramentasCache := cache.NewFerramentas(redisClient)

	var remoteClient *remote.Client
	if cfg.RemoteDSN != "" {
		pool, err := remote.NewPool(ctx, cfg.RemoteDSN)
		if err != nil {
			log.Warn().Err(err).Msg("backend remoto indisponível, seguindo só com a base embutida")
		} else {
			defer pool.Close()
			remoteClient = remote.NewClient(pool)

			// Alterações remotas em ferramentas invalidam o cache da
			// empresa dona do registro.
			err := remoteClient.Subscribe(ctx, "ferramentas", func(m remote.Mudanca) {
				f, err := repository.GetFerramentaByID(ctx, m.ID)
				if err != nil {
					return
				}
				dono, err := repository.GetUsuarioByID(ctx, f.OwnerID)
				if err != nil {
					return
				}
				ferramentasCache.Clear(ctx, dono.CNPJ)
			})
			if err != nil {
				log.Warn().Err(err).Msg("inscrição de alterações remotas falhou")
			}
		}
	}

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Engine:      engine,
		Repo:        repository,
		Remote:      remoteClient,
		Redis:       redisClient,
		AuthService: authService,
		Ferramentas: ferramentasCache,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
