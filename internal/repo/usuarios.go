package repo

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

func scanUsuario(row map[string]any) *Usuario {
	return &Usuario{
		ID:           rowString(row, "id"),
		Nome:         rowString(row, "name"),
		Email:        rowString(row, "email"),
		CNPJ:         rowString(row, "cnpj"),
		Role:         rowString(row, "role"),
		HostID:       rowStringPtr(row, "host_id"),
		CriadoEm:     rowString(row, "created_at"),
		AtualizadoEm: rowString(row, "updated_at"),
	}
}

// GetUsuarioByID busca usuário pelo identificador.
func (r *Repository) GetUsuarioByID(ctx context.Context, id string) (*Usuario, error) {
	row, err := r.store.SelectOne(ctx, "users", "id = ?", id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return scanUsuario(row), nil
}

// GetUsuarioByCNPJENome localiza usuário pelo par (cnpj, nome), a chave de
// login do sistema. O nome é comparado sem diferenciar maiúsculas.
func (r *Repository) GetUsuarioByCNPJENome(ctx context.Context, cnpj, nome string) (*Usuario, error) {
	row, err := r.store.SelectOne(ctx, "users", "cnpj = ? AND LOWER(name) = LOWER(?)",
		strings.TrimSpace(cnpj), strings.TrimSpace(nome))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return scanUsuario(row), nil
}

// InsertUsuarioInput reúne os campos de criação de usuário.
type InsertUsuarioInput struct {
	Nome   string
	Email  string
	CNPJ   string
	Role   string
	HostID *string
}

// InsertUsuario insere o usuário e devolve o registro persistido.
func (r *Repository) InsertUsuario(ctx context.Context, input InsertUsuarioInput) (*Usuario, error) {
	var hostID any
	if input.HostID != nil {
		hostID = *input.HostID
	}

	id, err := r.store.InsertOne(ctx, "users", map[string]any{
		"name":    input.Nome,
		"email":   input.Email,
		"cnpj":    input.CNPJ,
		"role":    input.Role,
		"host_id": hostID,
	})
	if err != nil {
		return nil, err
	}
	return r.GetUsuarioByID(ctx, id)
}

// DeleteUsuario remove o usuário; obras, ferramentas, credenciais e
// permissões dependentes caem pelo cascade declarado.
func (r *Repository) DeleteUsuario(ctx context.Context, id string) error {
	return r.store.DeleteOne(ctx, "users", id)
}

// ListFuncionariosByHosts lista funcionários vinculados a qualquer um dos
// hosts informados, como nas consultas multi-dono da empresa.
func (r *Repository) ListFuncionariosByHosts(ctx context.Context, hostIDs []string) ([]Usuario, error) {
	if len(hostIDs) == 0 {
		return nil, nil
	}
	rows, err := r.store.SelectAll(ctx, "users",
		"role = 'funcionario' AND host_id IN ("+inPlaceholders(len(hostIDs))+")",
		anySlice(hostIDs)...)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar funcionários")
		return nil, nil
	}
	out := make([]Usuario, 0, len(rows))
	for _, row := range rows {
		out = append(out, *scanUsuario(row))
	}
	return out, nil
}

// ListOutrosHostsByCNPJ lista os demais hosts que compartilham o cnpj.
func (r *Repository) ListOutrosHostsByCNPJ(ctx context.Context, cnpj, exceptID string) ([]Usuario, error) {
	rows, err := r.store.SelectAll(ctx, "users", "role = 'host' AND cnpj = ? AND id != ?", cnpj, exceptID)
	if err != nil {
		log.Error().Err(err).Msg("repo: falha ao listar hosts da empresa")
		return nil, nil
	}
	out := make([]Usuario, 0, len(rows))
	for _, row := range rows {
		out = append(out, *scanUsuario(row))
	}
	return out, nil
}

// CompanyHostIDs resolve o conjunto de hosts que compartilham o cnpj do
// usuário. Vale para qualquer papel: funcionário herda o cnpj da empresa,
// e seu escopo de leitura são os donos dela (o filtro de permissão decide
// o que ele enxerga depois). Nunca devolve conjunto vazio para um usuário
// válido: em erro ou resultado vazio cai para o singleton com o próprio
// id, para que ninguém legítimo enxergue zero dados por falha de resolução.
func (r *Repository) CompanyHostIDs(ctx context.Context, u *Usuario) []string {
	if u == nil {
		return nil
	}

	rows, err := r.store.SelectAll(ctx, "users", "role = ? AND cnpj = ?", RoleHost, u.CNPJ)
	if err != nil {
		log.Warn().Err(err).Str("usuario", u.ID).Msg("repo: falha ao resolver hosts da empresa")
		return []string{u.ID}
	}
	if len(rows) == 0 {
		return []string{u.ID}
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, rowString(row, "id"))
	}
	return ids
}

// OrdenarPorNome ordena usuários pelo nome, como a listagem de equipe.
func OrdenarPorNome(usuarios []Usuario) {
	sort.Slice(usuarios, func(i, j int) bool {
		return strings.ToLower(usuarios[i].Nome) < strings.ToLower(usuarios[j].Nome)
	})
}

// GetCredencialByUsuario busca a credencial 1:1 do usuário.
func (r *Repository) GetCredencialByUsuario(ctx context.Context, usuarioID string) (*Credencial, error) {
	row, err := r.store.SelectOne(ctx, "user_credentials", "user_id = ?", usuarioID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return &Credencial{
		UsuarioID:    rowString(row, "user_id"),
		PasswordHash: rowString(row, "password_hash"),
		CriadoEm:     rowString(row, "created_at"),
	}, nil
}

// InsertCredencial grava a credencial do usuário. A tabela é chaveada por
// user_id, então não passa pelo InsertOne genérico (que injeta coluna id).
func (r *Repository) InsertCredencial(ctx context.Context, usuarioID, passwordHash string) error {
	return r.store.Exec(ctx,
		"INSERT INTO user_credentials (user_id, password_hash) VALUES (?, ?)",
		usuarioID, passwordHash)
}
