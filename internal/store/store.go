package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/auth"
	"github.com/praticaeng/obrasflow/internal/util"
)

// Options parametriza a abertura da base embutida.
type Options struct {
	// Slot recebe a imagem serializada da base após cada mutação.
	Slot Slot
	// ScratchDir abriga o arquivo de trabalho do SQLite. Default: os.TempDir().
	ScratchDir string
	// BootstrapSenha é a senha semeada para o host inicial. Default: senha123.
	BootstrapSenha string
}

// Engine é a instância relacional embutida, com ciclo de vida explícito:
// Open na subida, Close no desligamento. Cada teste abre o seu próprio
// Engine com um slot descartável.
type Engine struct {
	opts   Options
	db     *sql.DB
	dbPath string

	// mu serializa mutações e a persistência subsequente, preservando
	// leitura-após-escrita na mesma cadeia de chamadas.
	mu sync.Mutex

	initOnce sync.Once
	initErr  error
}

// Open constrói o Engine e executa a inicialização imediatamente.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	e := New(opts)
	if err := e.Init(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// New constrói o Engine sem inicializar. Init pode então ser chamado por
// múltiplas goroutines: todas aguardam a mesma inicialização.
func New(opts Options) *Engine {
	if opts.ScratchDir == "" {
		opts.ScratchDir = os.TempDir()
	}
	if opts.BootstrapSenha == "" {
		opts.BootstrapSenha = "senha123"
	}
	return &Engine{opts: opts}
}

// Init é idempotente e single-flight: chamadas concorrentes compartilham
// uma única aplicação de schema e uma única semeadura do host inicial.
func (e *Engine) Init(ctx context.Context) error {
	e.initOnce.Do(func() {
		e.initErr = e.init(ctx)
	})
	return e.initErr
}

func (e *Engine) init(ctx context.Context) error {
	if e.opts.Slot == nil {
		return &InitError{Err: fmt.Errorf("slot durável não configurado")}
	}

	if err := os.MkdirAll(e.opts.ScratchDir, 0o755); err != nil {
		return &InitError{Err: err}
	}
	e.dbPath = filepath.Join(e.opts.ScratchDir, "obrasflow-"+util.NewID()+".db")

	img, found, err := e.opts.Slot.Get(ctx)
	if err != nil {
		return &InitError{Err: fmt.Errorf("leitura do slot durável: %w", err)}
	}
	if found {
		if err := os.WriteFile(e.dbPath, img, 0o600); err != nil {
			return &InitError{Err: err}
		}
	}

	db, err := sql.Open("sqlite3", e.dbPath+"?_foreign_keys=on")
	if err != nil {
		return &InitError{Err: err}
	}
	// Uma única conexão: a base é um recurso compartilhado de fluxo único.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &InitError{Err: err}
	}

	// Uma imagem corrompida no slot aflora aqui como erro de statement.
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return &InitError{Err: fmt.Errorf("aplicação do schema: %w", err)}
	}

	e.db = db

	if !found {
		if err := e.seed(ctx); err != nil {
			db.Close()
			e.db = nil
			return &InitError{Err: fmt.Errorf("semeadura inicial: %w", err)}
		}
		e.mu.Lock()
		e.persist(ctx)
		e.mu.Unlock()
		log.Info().Str("path", e.dbPath).Msg("base embutida criada")
	} else {
		log.Info().Str("path", e.dbPath).Msg("base embutida restaurada do slot")
	}

	return nil
}

func (e *Engine) seed(ctx context.Context) error {
	const insertHost = `
        INSERT OR IGNORE INTO users (id, name, email, cnpj, role, host_id)
        VALUES (?, ?, ?, ?, 'host', NULL)
    `
	if _, err := e.db.ExecContext(ctx, insertHost,
		BootstrapHostID, bootstrapHostNome, bootstrapHostEmail, bootstrapHostCNPJ); err != nil {
		return err
	}

	hash, err := auth.Hash(e.opts.BootstrapSenha)
	if err != nil {
		return err
	}

	const insertCred = `
        INSERT OR IGNORE INTO user_credentials (user_id, password_hash)
        VALUES (?, ?)
    `
	_, err = e.db.ExecContext(ctx, insertCred, BootstrapHostID, hash)
	return err
}

// Persist serializa a imagem completa da base e grava no slot durável.
// Falhas são registradas, não propagadas: a escrita em memória já ocorreu.
func (e *Engine) Persist(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persist(ctx)
}

// persist exige e.mu.
func (e *Engine) persist(ctx context.Context) {
	scratch := e.dbPath + ".img"
	_ = os.Remove(scratch)

	if _, err := e.db.ExecContext(ctx, "VACUUM INTO ?", scratch); err != nil {
		log.Error().Err(err).Msg("store: falha ao serializar imagem da base")
		return
	}

	img, err := os.ReadFile(scratch)
	_ = os.Remove(scratch)
	if err != nil {
		log.Error().Err(err).Msg("store: falha ao ler imagem serializada")
		return
	}

	if err := e.opts.Slot.Set(ctx, img); err != nil {
		log.Warn().Err(err).Int("bytes", len(img)).Msg("store: slot durável recusou a imagem")
	}
}

// Close encerra a conexão e remove o arquivo de trabalho.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	if e.dbPath != "" {
		_ = os.Remove(e.dbPath)
	}
	return err
}
