package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/praticaeng/obrasflow/internal/store"
)

func novoRepo(t *testing.T) *Repository {
	t.Helper()

	dir := t.TempDir()
	e, err := store.Open(context.Background(), store.Options{
		Slot:       &store.FileSlot{Path: filepath.Join(dir, "slot.img")},
		ScratchDir: dir,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return New(e)
}

func criarHost(t *testing.T, r *Repository, nome, email, cnpj string) *Usuario {
	t.Helper()

	u, err := r.InsertUsuario(context.Background(), InsertUsuarioInput{
		Nome: nome, Email: email, CNPJ: cnpj, Role: RoleHost,
	})
	if err != nil {
		t.Fatalf("InsertUsuario: %v", err)
	}
	return u
}

func criarFuncionario(t *testing.T, r *Repository, host *Usuario, nome, email string) *Usuario {
	t.Helper()

	u, err := r.InsertUsuario(context.Background(), InsertUsuarioInput{
		Nome: nome, Email: email, CNPJ: host.CNPJ, Role: RoleFuncionario, HostID: &host.ID,
	})
	if err != nil {
		t.Fatalf("InsertUsuario funcionário: %v", err)
	}
	return u
}

func TestCompanyHostIDsNuncaVazio(t *testing.T) {
	r := novoRepo(t)
	ctx := context.Background()

	host := criarHost(t, r, "Alice", "alice@ex.com", "11111111000111")
	outro := criarHost(t, r, "Bruno", "bruno@ex.com", "11111111000111")
	func1 := criarFuncionario(t, r, host, "Carla", "carla@ex.com")

	ids := r.CompanyHostIDs(ctx, func1)
	if len(ids) != 2 {
		t.Fatalf("hosts da empresa = %d, esperava 2", len(ids))
	}
	achou := map[string]bool{}
	for _, id := range ids {
		achou[id] = true
	}
	if !achou[host.ID] || !achou[outro.ID] {
		t.Fatalf("hosts da empresa %v não contém %s e %s", ids, host.ID, outro.ID)
	}

	// Usuário com cnpj sem hosts cadastrados: cai no próprio id.
	orfao := &Usuario{ID: "u-sem-empresa", CNPJ: "99999999000199", Role: RoleFuncionario}
	ids = r.CompanyHostIDs(ctx, orfao)
	if len(ids) != 1 || ids[0] != orfao.ID {
		t.Fatalf("fallback = %v, esperava [%s]", ids, orfao.ID)
	}
}

func TestSetPermissaoObraUpsert(t *testing.T) {
	r := novoRepo(t)
	ctx := context.Background()

	host := criarHost(t, r, "Alice", "alice@ex.com", "11111111000111")
	func1 := criarFuncionario(t, r, host, "Carla", "carla@ex.com")
	obra, err := r.CreateObra(ctx, CreateObraInput{
		Title: "Obra Norte", Endereco: "Rua A", OwnerID: host.ID, StartDate: "2026-02-01",
	})
	if err != nil {
		t.Fatalf("CreateObra: %v", err)
	}

	if err := r.SetPermissaoObra(ctx, func1.ID, obra.ID, true, false); err != nil {
		t.Fatalf("SetPermissaoObra: %v", err)
	}
	// Segunda concessão para o mesmo par ajusta, não duplica.
	if err := r.SetPermissaoObra(ctx, func1.ID, obra.ID, true, true); err != nil {
		t.Fatalf("SetPermissaoObra upsert: %v", err)
	}

	permissoes, err := r.ListPermissoesObraByUsuario(ctx, func1.ID)
	if err != nil {
		t.Fatalf("ListPermissoesObraByUsuario: %v", err)
	}
	if len(permissoes) != 1 {
		t.Fatalf("permissões = %d, esperava 1", len(permissoes))
	}
	if !permissoes[0].CanEdit {
		t.Fatal("upsert não atualizou can_edit")
	}
}

func TestRegistrarMovimentacaoPropagaLocal(t *testing.T) {
	r := novoRepo(t)
	ctx := context.Background()

	host := criarHost(t, r, "Alice", "alice@ex.com", "11111111000111")
	obra, err := r.CreateObra(ctx, CreateObraInput{
		Title: "Obra Norte", Endereco: "Rua A", OwnerID: host.ID, StartDate: "2026-02-01",
	})
	if err != nil {
		t.Fatalf("CreateObra: %v", err)
	}
	ferramenta, err := r.CreateFerramenta(ctx, CreateFerramentaInput{
		Nome: "Serra", CadastradoPor: host.ID, OwnerID: host.ID,
	})
	if err != nil {
		t.Fatalf("CreateFerramenta: %v", err)
	}

	mov, err := r.RegistrarMovimentacao(ctx, RegistrarMovimentacaoInput{
		FerramentaID: ferramenta.ID,
		De:           ferramenta.Local,
		Para:         LocalObra(obra.ID),
		UsuarioID:    host.ID,
		Note:         "início da fundação",
	})
	if err != nil {
		t.Fatalf("RegistrarMovimentacao: %v", err)
	}
	if mov.Note != "início da fundação" {
		t.Fatalf("note = %q", mov.Note)
	}

	depois, err := r.GetFerramentaByID(ctx, ferramenta.ID)
	if err != nil {
		t.Fatalf("GetFerramentaByID: %v", err)
	}
	if depois.Status != FerramentaEmUso {
		t.Fatalf("status = %s, esperava em_uso", depois.Status)
	}
	tipo, _ := depois.Local.Tipo()
	id, _ := depois.Local.ID()
	if tipo != TipoObra || id != obra.ID {
		t.Fatalf("local = %v/%v, esperava obra/%s", tipo, id, obra.ID)
	}

	movs, err := r.ListMovimentacoesByFerramenta(ctx, ferramenta.ID)
	if err != nil {
		t.Fatalf("ListMovimentacoesByFerramenta: %v", err)
	}
	if len(movs) != 1 {
		t.Fatalf("movimentações = %d, esperava 1", len(movs))
	}
}

func TestRegistrarMovimentacaoFerramentaInexistente(t *testing.T) {
	r := novoRepo(t)
	ctx := context.Background()

	host := criarHost(t, r, "Alice", "alice@ex.com", "11111111000111")

	_, err := r.RegistrarMovimentacao(ctx, RegistrarMovimentacaoInput{
		FerramentaID: "nao-existe",
		Para:         LocalEstabelecimento("dep-1"),
		UsuarioID:    host.ID,
	})
	if err == nil {
		t.Fatal("movimentação de ferramenta inexistente foi aceita")
	}
}

func TestHistoricoOrdenadoComNomes(t *testing.T) {
	r := novoRepo(t)
	ctx := context.Background()

	host := criarHost(t, r, "Alice", "alice@ex.com", "11111111000111")
	ferramenta, err := r.CreateFerramenta(ctx, CreateFerramentaInput{
		Nome: "Betoneira", CadastradoPor: host.ID, OwnerID: host.ID,
	})
	if err != nil {
		t.Fatalf("CreateFerramenta: %v", err)
	}

	for _, action := range []string{"cadastro", "movimentacao"} {
		if err := r.RegistrarHistorico(ctx, RegistrarHistoricoInput{
			FerramentaID: ferramenta.ID,
			UsuarioID:    host.ID,
			Action:       action,
			Local:        SemLocal(),
		}); err != nil {
			t.Fatalf("RegistrarHistorico(%s): %v", action, err)
		}
	}

	historico, err := r.ListHistoricoByOwners(ctx, []string{host.ID})
	if err != nil {
		t.Fatalf("ListHistoricoByOwners: %v", err)
	}
	if len(historico) != 2 {
		t.Fatalf("histórico = %d, esperava 2", len(historico))
	}
	for _, h := range historico {
		if h.UsuarioNome != "Alice" {
			t.Fatalf("user_name = %q, esperava Alice", h.UsuarioNome)
		}
		if h.FerramentaNome != "Betoneira" {
			t.Fatalf("ferramenta_name = %q, esperava Betoneira", h.FerramentaNome)
		}
	}
	// Mais recente primeiro; com created_at empatado vale a ordem estável
	// da consulta, então só o par precisa estar presente.
}

func TestLocalizacaoJSON(t *testing.T) {
	obra := LocalObra("obra-1")
	data, err := obra.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != `{"tipo":"obra","id":"obra-1"}` {
		t.Fatalf("json = %s", data)
	}

	var vazia Localizacao
	if err := vazia.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("UnmarshalJSON null: %v", err)
	}
	if !vazia.Vazia() {
		t.Fatal("null deveria render localização vazia")
	}

	var dest Localizacao
	if err := dest.UnmarshalJSON([]byte(`{"tipo":"estabelecimento","id":"dep-9"}`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	tipo, _ := dest.Tipo()
	if tipo != TipoEstabelecimento {
		t.Fatalf("tipo = %v", tipo)
	}

	if err := dest.UnmarshalJSON([]byte(`{"tipo":"galpao","id":"x"}`)); err == nil {
		t.Fatal("tipo inválido foi aceito")
	}
}
