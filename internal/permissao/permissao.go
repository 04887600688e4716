// Package permissao calcula quais obras um usuário pode enxergar.
//
// Política adotada: fail-closed. Funcionário sem nenhuma linha de
// permissão não enxerga obra alguma, e falha na consulta de permissões
// também nega o acesso (o erro é devolvido junto, nunca mascarado como
// lista vazia bem-sucedida). Hosts enxergam tudo o que possuem.
package permissao

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/repo"
)

// Consulta é o acesso às linhas de permissão exigido pelo filtro.
type Consulta interface {
	ListPermissoesObraByUsuario(ctx context.Context, usuarioID string) ([]repo.PermissaoObra, error)
}

// Filtro aplica a política de visibilidade por usuário.
type Filtro struct {
	consulta Consulta
}

// New cria o filtro sobre a consulta de permissões informada.
func New(consulta Consulta) *Filtro {
	return &Filtro{consulta: consulta}
}

// FilterObras devolve o subconjunto de obras visível ao usuário,
// preservando a ordem da lista de entrada (não a das permissões).
func (f *Filtro) FilterObras(ctx context.Context, usuario *repo.Usuario, obras []repo.Obra) ([]repo.Obra, error) {
	if usuario.Role == repo.RoleHost {
		return obras, nil
	}

	permissoes, err := f.consulta.ListPermissoesObraByUsuario(ctx, usuario.ID)
	if err != nil {
		log.Error().Err(err).Str("usuario", usuario.ID).
			Msg("permissao: consulta falhou, acesso negado (fail-closed)")
		return nil, err
	}

	if len(permissoes) == 0 {
		return []repo.Obra{}, nil
	}

	permitidas := make(map[string]struct{}, len(permissoes))
	for _, p := range permissoes {
		permitidas[p.ObraID] = struct{}{}
	}

	filtradas := make([]repo.Obra, 0, len(obras))
	for _, obra := range obras {
		if _, ok := permitidas[obra.ID]; ok {
			filtradas = append(filtradas, obra)
		}
	}
	return filtradas, nil
}

// HasObraPermission responde se o usuário pode acessar a obra. Host
// curto-circuita em true; para funcionário vale a mesma política
// fail-closed do FilterObras.
func (f *Filtro) HasObraPermission(ctx context.Context, usuario *repo.Usuario, obraID string) (bool, error) {
	if usuario.Role == repo.RoleHost {
		return true, nil
	}

	permissoes, err := f.consulta.ListPermissoesObraByUsuario(ctx, usuario.ID)
	if err != nil {
		log.Error().Err(err).Str("usuario", usuario.ID).
			Msg("permissao: consulta falhou, acesso negado (fail-closed)")
		return false, err
	}

	for _, p := range permissoes {
		if p.ObraID == obraID {
			return true, nil
		}
	}
	return false, nil
}
