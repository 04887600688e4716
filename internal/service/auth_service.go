package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/auth"
	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/store"
	"github.com/praticaeng/obrasflow/internal/util"
)

var (
	// ErrCredenciaisInvalidas indica falha na autenticação. A mensagem é
	// única para usuário inexistente e senha errada, evitando enumeração;
	// a distinção fica apenas nos logs.
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	// ErrSomenteHost indica operação restrita a hosts.
	ErrSomenteHost = errors.New("apenas hosts podem gerenciar funcionários")
	// ErrUsuarioProtegido indica tentativa de remover o host principal.
	ErrUsuarioProtegido = errors.New("o host principal do sistema não pode ser removido")
)

type authRepository interface {
	GetUsuarioByID(ctx context.Context, id string) (*repo.Usuario, error)
	GetUsuarioByCNPJENome(ctx context.Context, cnpj, nome string) (*repo.Usuario, error)
	GetCredencialByUsuario(ctx context.Context, usuarioID string) (*repo.Credencial, error)
	InsertUsuario(ctx context.Context, input repo.InsertUsuarioInput) (*repo.Usuario, error)
	InsertCredencial(ctx context.Context, usuarioID, passwordHash string) error
	DeleteUsuario(ctx context.Context, id string) error
	ListFuncionariosByHosts(ctx context.Context, hostIDs []string) ([]repo.Usuario, error)
	ListOutrosHostsByCNPJ(ctx context.Context, cnpj, exceptID string) ([]repo.Usuario, error)
	CompanyHostIDs(ctx context.Context, u *repo.Usuario) []string
}

// AuthService concentra autenticação e gestão de equipe.
type AuthService struct {
	repo authRepository
	jwt  *auth.JWTManager
}

// NewAuthService cria o serviço.
func NewAuthService(r *repo.Repository, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{repo: r, jwt: jwtMgr}
}

// JWT expõe o gerenciador de tokens (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult embala o usuário autenticado e seu token de acesso.
type LoginResult struct {
	Usuario     *repo.Usuario
	AccessToken string
}

// Login autentica pelo trio (cnpj, nome, senha).
func (s *AuthService) Login(ctx context.Context, cnpj, nome, senha string) (*LoginResult, error) {
	usuario, err := s.repo.GetUsuarioByCNPJENome(ctx, util.NormalizeCNPJ(cnpj), nome)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	cred, err := s.repo.GetCredencialByUsuario(ctx, usuario.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Str("usuario", usuario.ID).Msg("login: credencial ausente")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, cred.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrCredenciaisInvalidas
	}
	if !ok {
		log.Warn().Str("usuario", usuario.ID).Msg("login: senha inválida")
		return nil, ErrCredenciaisInvalidas
	}

	token, err := s.jwt.GenerateAccessToken(usuario.ID, usuario.Role, usuario.CNPJ, usuario.HostID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Usuario: usuario, AccessToken: token}, nil
}

// NovoFuncionario reúne os dados de cadastro de um membro da equipe.
type NovoFuncionario struct {
	Nome  string
	Email string
	Role  string
	Senha string
}

// AddEmployee cadastra um membro da equipe sob o cnpj do host. A criação
// é em dois passos (usuário, depois credencial); se a credencial falhar o
// usuário recém-criado é removido, para nunca restar um usuário sem como
// se autenticar.
func (s *AuthService) AddEmployee(ctx context.Context, ator *repo.Usuario, novo NovoFuncionario) (*repo.Usuario, error) {
	if ator.Role != repo.RoleHost {
		return nil, ErrSomenteHost
	}

	if err := util.RequireString(novo.Nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(novo.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(novo.Senha); err != nil {
		return nil, err
	}
	if novo.Role != repo.RoleHost && novo.Role != repo.RoleFuncionario {
		return nil, errors.New("role inválida")
	}

	var hostID *string
	if novo.Role == repo.RoleFuncionario {
		hostID = &ator.ID
	}

	usuario, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioInput{
		Nome:   strings.TrimSpace(novo.Nome),
		Email:  strings.ToLower(strings.TrimSpace(novo.Email)),
		CNPJ:   ator.CNPJ,
		Role:   novo.Role,
		HostID: hostID,
	})
	if err != nil {
		return nil, fmt.Errorf("cadastro de funcionário: %w", err)
	}

	hash, err := auth.Hash(novo.Senha)
	if err == nil {
		err = s.repo.InsertCredencial(ctx, usuario.ID, hash)
	}
	if err != nil {
		if delErr := s.repo.DeleteUsuario(ctx, usuario.ID); delErr != nil {
			log.Error().Err(delErr).Str("usuario", usuario.ID).
				Msg("addEmployee: falha ao desfazer usuário sem credencial")
		}
		return nil, fmt.Errorf("cadastro de credencial: %w", err)
	}

	return usuario, nil
}

// RemoveEmployee exclui um membro da equipe. O host semeado na criação da
// base é protegido.
func (s *AuthService) RemoveEmployee(ctx context.Context, ator *repo.Usuario, usuarioID string) error {
	if ator.Role != repo.RoleHost {
		return ErrSomenteHost
	}
	if usuarioID == store.BootstrapHostID {
		return ErrUsuarioProtegido
	}
	return s.repo.DeleteUsuario(ctx, usuarioID)
}

// ListEmployees devolve a equipe da empresa: funcionários de todos os
// hosts do cnpj mais os demais hosts, ordenados por nome.
func (s *AuthService) ListEmployees(ctx context.Context, ator *repo.Usuario) ([]repo.Usuario, error) {
	if ator.Role != repo.RoleHost {
		return nil, nil
	}

	hostIDs := s.repo.CompanyHostIDs(ctx, ator)

	funcionarios, err := s.repo.ListFuncionariosByHosts(ctx, hostIDs)
	if err != nil {
		return nil, err
	}
	hosts, err := s.repo.ListOutrosHostsByCNPJ(ctx, ator.CNPJ, ator.ID)
	if err != nil {
		return nil, err
	}

	equipe := append(funcionarios, hosts...)
	repo.OrdenarPorNome(equipe)
	return equipe, nil
}

// CompanyHostIDs expõe a resolução de hosts da empresa.
func (s *AuthService) CompanyHostIDs(ctx context.Context, u *repo.Usuario) []string {
	return s.repo.CompanyHostIDs(ctx, u)
}

// IsProtectedUser informa se o id pertence ao host protegido.
func (s *AuthService) IsProtectedUser(usuarioID string) bool {
	return usuarioID == store.BootstrapHostID
}

// GetUsuario carrega um usuário pelo id (usado pelo middleware de sessão).
func (s *AuthService) GetUsuario(ctx context.Context, id string) (*repo.Usuario, error) {
	return s.repo.GetUsuarioByID(ctx, id)
}
