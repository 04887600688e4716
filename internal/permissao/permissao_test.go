package permissao

import (
	"context"
	"errors"
	"testing"

	"github.com/praticaeng/obrasflow/internal/repo"
)

type consultaStub struct {
	permissoes []repo.PermissaoObra
	err        error
	chamadas   int
}

func (c *consultaStub) ListPermissoesObraByUsuario(ctx context.Context, usuarioID string) ([]repo.PermissaoObra, error) {
	c.chamadas++
	return c.permissoes, c.err
}

func obrasDeTeste(n int) []repo.Obra {
	obras := make([]repo.Obra, 0, n)
	for i := 0; i < n; i++ {
		obras = append(obras, repo.Obra{ID: string(rune('a' + i))})
	}
	return obras
}

func TestHostEnxergaTudo(t *testing.T) {
	consulta := &consultaStub{}
	f := New(consulta)
	host := &repo.Usuario{ID: "h1", Role: repo.RoleHost}

	obras := obrasDeTeste(5)
	visiveis, err := f.FilterObras(context.Background(), host, obras)
	if err != nil {
		t.Fatalf("FilterObras: %v", err)
	}
	if len(visiveis) != 5 {
		t.Fatalf("visíveis = %d, esperava 5", len(visiveis))
	}
	for i := range obras {
		if visiveis[i].ID != obras[i].ID {
			t.Fatalf("ordem alterada na posição %d", i)
		}
	}
	if consulta.chamadas != 0 {
		t.Fatal("host não deveria consultar permissões")
	}
}

func TestFuncionarioIntersecaoPreservaOrdem(t *testing.T) {
	consulta := &consultaStub{permissoes: []repo.PermissaoObra{
		{ObraID: "c", CanView: true},
		{ObraID: "a", CanView: true},
	}}
	f := New(consulta)
	func1 := &repo.Usuario{ID: "f1", Role: repo.RoleFuncionario}

	visiveis, err := f.FilterObras(context.Background(), func1, obrasDeTeste(4)) // a b c d
	if err != nil {
		t.Fatalf("FilterObras: %v", err)
	}
	if len(visiveis) != 2 || visiveis[0].ID != "a" || visiveis[1].ID != "c" {
		t.Fatalf("visíveis = %v, esperava [a c] na ordem de entrada", visiveis)
	}
}

func TestFuncionarioSemPermissoesNaoVeNada(t *testing.T) {
	f := New(&consultaStub{})
	func1 := &repo.Usuario{ID: "f1", Role: repo.RoleFuncionario}

	visiveis, err := f.FilterObras(context.Background(), func1, obrasDeTeste(3))
	if err != nil {
		t.Fatalf("FilterObras: %v", err)
	}
	if visiveis == nil {
		t.Fatal("esperava lista vazia, não nil")
	}
	if len(visiveis) != 0 {
		t.Fatalf("visíveis = %d, esperava 0 (fail-closed)", len(visiveis))
	}
}

func TestConsultaComErroNegaAcesso(t *testing.T) {
	falha := errors.New("base indisponível")
	f := New(&consultaStub{err: falha})
	func1 := &repo.Usuario{ID: "f1", Role: repo.RoleFuncionario}

	if _, err := f.FilterObras(context.Background(), func1, obrasDeTeste(3)); !errors.Is(err, falha) {
		t.Fatalf("erro = %v, esperava propagação de %v", err, falha)
	}

	ok, err := f.HasObraPermission(context.Background(), func1, "a")
	if !errors.Is(err, falha) {
		t.Fatalf("erro = %v, esperava propagação de %v", err, falha)
	}
	if ok {
		t.Fatal("falha de consulta concedeu acesso")
	}
}

func TestHasObraPermission(t *testing.T) {
	consulta := &consultaStub{permissoes: []repo.PermissaoObra{{ObraID: "b", CanView: true}}}
	f := New(consulta)

	host := &repo.Usuario{ID: "h1", Role: repo.RoleHost}
	if ok, err := f.HasObraPermission(context.Background(), host, "qualquer"); err != nil || !ok {
		t.Fatalf("host: ok=%v err=%v", ok, err)
	}

	func1 := &repo.Usuario{ID: "f1", Role: repo.RoleFuncionario}
	if ok, _ := f.HasObraPermission(context.Background(), func1, "b"); !ok {
		t.Fatal("permissão concedida não foi reconhecida")
	}
	if ok, _ := f.HasObraPermission(context.Background(), func1, "z"); ok {
		t.Fatal("obra sem concessão foi liberada")
	}
}
