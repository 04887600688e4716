package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func abrirEngine(t *testing.T) *Engine {
	t.Helper()

	dir := t.TempDir()
	e, err := Open(context.Background(), Options{
		Slot:       &FileSlot{Path: filepath.Join(dir, "slot.img")},
		ScratchDir: dir,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func contarHosts(t *testing.T, e *Engine) int {
	t.Helper()

	rows, err := e.Query(context.Background(), "SELECT id FROM users WHERE id = ?", BootstrapHostID)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	return len(rows)
}

func TestInitIdempotente(t *testing.T) {
	e := abrirEngine(t)

	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("segundo Init: %v", err)
	}
	if got := contarHosts(t, e); got != 1 {
		t.Fatalf("hosts semeados = %d, esperava 1", got)
	}
}

func TestInitConcorrenteSemeiaUmaVez(t *testing.T) {
	dir := t.TempDir()
	e := New(Options{
		Slot:       &FileSlot{Path: filepath.Join(dir, "slot.img")},
		ScratchDir: dir,
	})
	t.Cleanup(func() { _ = e.Close() })

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.Init(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Init #%d: %v", i, err)
		}
	}
	if got := contarHosts(t, e); got != 1 {
		t.Fatalf("hosts semeados = %d, esperava 1", got)
	}
}

func TestPersistRestauraAposEscrita(t *testing.T) {
	dir := t.TempDir()
	slot := &FileSlot{Path: filepath.Join(dir, "slot.img")}
	ctx := context.Background()

	e, err := Open(ctx, Options{Slot: slot, ScratchDir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	id, err := e.InsertOne(ctx, "obras", map[string]any{
		"title":       "Obra Centro",
		"description": "",
		"endereco":    "",
		"owner_id":    BootstrapHostID,
		"start_date":  "2026-01-10",
	})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Um segundo Engine sobre o mesmo slot enxerga a escrita anterior.
	e2, err := Open(ctx, Options{Slot: slot, ScratchDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open após restore: %v", err)
	}
	defer e2.Close()

	row, err := e2.SelectOne(ctx, "obras", "id = ?", id)
	if err != nil {
		t.Fatalf("SelectOne: %v", err)
	}
	if row == nil {
		t.Fatal("obra não sobreviveu ao ciclo persist/restore")
	}
	if row["title"] != "Obra Centro" {
		t.Fatalf("title = %v, esperava Obra Centro", row["title"])
	}
	if got := contarHosts(t, e2); got != 1 {
		t.Fatalf("hosts após restore = %d, esperava 1", got)
	}
}

func TestSlotCorrompidoFalhaInit(t *testing.T) {
	dir := t.TempDir()
	slot := &FileSlot{Path: filepath.Join(dir, "slot.img")}
	ctx := context.Background()

	if err := slot.Set(ctx, []byte("isto não é um banco")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	_, err := Open(ctx, Options{Slot: slot, ScratchDir: dir})
	if err == nil {
		t.Fatal("Open aceitou imagem corrompida")
	}
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("erro %T, esperava *InitError", err)
	}
}

func TestDeleteFerramentaCascata(t *testing.T) {
	e := abrirEngine(t)
	ctx := context.Background()

	fid, err := e.InsertOne(ctx, "ferramentas", map[string]any{
		"name":           "Makita",
		"cadastrado_por": BootstrapHostID,
		"owner_id":       BootstrapHostID,
	})
	if err != nil {
		t.Fatalf("InsertOne ferramenta: %v", err)
	}

	if _, err := e.InsertOne(ctx, "movimentacoes", map[string]any{
		"ferramenta_id": fid,
		"to_type":       "estabelecimento",
		"to_id":         "dep-1",
		"user_id":       BootstrapHostID,
	}); err != nil {
		t.Fatalf("InsertOne movimentacao: %v", err)
	}
	if _, err := e.InsertOne(ctx, "user_ferramenta_permissions", map[string]any{
		"user_id":       BootstrapHostID,
		"ferramenta_id": fid,
		"can_view":      1,
		"can_edit":      0,
	}); err != nil {
		t.Fatalf("InsertOne permissão: %v", err)
	}

	if err := e.DeleteOne(ctx, "ferramentas", fid); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}

	movs, err := e.SelectAll(ctx, "movimentacoes", "ferramenta_id = ?", fid)
	if err != nil {
		t.Fatalf("SelectAll movimentacoes: %v", err)
	}
	if len(movs) != 0 {
		t.Fatalf("movimentações órfãs = %d, esperava cascade", len(movs))
	}
	perms, err := e.SelectAll(ctx, "user_ferramenta_permissions", "ferramenta_id = ?", fid)
	if err != nil {
		t.Fatalf("SelectAll permissões: %v", err)
	}
	if len(perms) != 0 {
		t.Fatalf("permissões órfãs = %d, esperava cascade", len(perms))
	}
}

// contandoSlot registra quantas imagens recebeu.
type contandoSlot struct {
	FileSlot
	sets int
}

func (s *contandoSlot) Set(ctx context.Context, data []byte) error {
	s.sets++
	return s.FileSlot.Set(ctx, data)
}

func TestExecComErroNaoPersiste(t *testing.T) {
	dir := t.TempDir()
	slot := &contandoSlot{FileSlot: FileSlot{Path: filepath.Join(dir, "slot.img")}}
	ctx := context.Background()

	e, err := Open(ctx, Options{Slot: slot, ScratchDir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	antes := slot.sets

	err = e.Exec(ctx, "INSERT INTO tabela_inexistente (x) VALUES (1)")
	if err == nil {
		t.Fatal("Exec aceitou SQL inválido")
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("erro de Exec é %T, esperava *ExecError", err)
	}

	if slot.sets != antes {
		t.Fatalf("slot recebeu imagem após mutação rejeitada (de %d para %d)", antes, slot.sets)
	}

	if err := e.Exec(ctx, "UPDATE users SET name = ? WHERE id = ?", "Fernando A.", BootstrapHostID); err != nil {
		t.Fatalf("Exec válido: %v", err)
	}
	if slot.sets != antes+1 {
		t.Fatalf("mutação bem-sucedida não persistiu (de %d para %d)", antes, slot.sets)
	}
}
