package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praticaeng/obrasflow/internal/auth"
	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/store"
)

type stubRepo struct {
	usuarios    map[string]*repo.Usuario
	credenciais map[string]string

	falhaCredencial error
	removidos       []string
}

func novoStub() *stubRepo {
	return &stubRepo{
		usuarios:    map[string]*repo.Usuario{},
		credenciais: map[string]string{},
	}
}

func (s *stubRepo) GetUsuarioByID(ctx context.Context, id string) (*repo.Usuario, error) {
	if u, ok := s.usuarios[id]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubRepo) GetUsuarioByCNPJENome(ctx context.Context, cnpj, nome string) (*repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.CNPJ == cnpj && u.Nome == nome {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *stubRepo) GetCredencialByUsuario(ctx context.Context, usuarioID string) (*repo.Credencial, error) {
	hash, ok := s.credenciais[usuarioID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &repo.Credencial{UsuarioID: usuarioID, PasswordHash: hash}, nil
}

func (s *stubRepo) InsertUsuario(ctx context.Context, input repo.InsertUsuarioInput) (*repo.Usuario, error) {
	u := &repo.Usuario{
		ID:     "u-" + input.Email,
		Nome:   input.Nome,
		Email:  input.Email,
		CNPJ:   input.CNPJ,
		Role:   input.Role,
		HostID: input.HostID,
	}
	s.usuarios[u.ID] = u
	return u, nil
}

func (s *stubRepo) InsertCredencial(ctx context.Context, usuarioID, passwordHash string) error {
	if s.falhaCredencial != nil {
		return s.falhaCredencial
	}
	s.credenciais[usuarioID] = passwordHash
	return nil
}

func (s *stubRepo) DeleteUsuario(ctx context.Context, id string) error {
	delete(s.usuarios, id)
	s.removidos = append(s.removidos, id)
	return nil
}

func (s *stubRepo) ListFuncionariosByHosts(ctx context.Context, hostIDs []string) ([]repo.Usuario, error) {
	hosts := map[string]bool{}
	for _, id := range hostIDs {
		hosts[id] = true
	}
	var out []repo.Usuario
	for _, u := range s.usuarios {
		if u.Role == repo.RoleFuncionario && u.HostID != nil && hosts[*u.HostID] {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubRepo) ListOutrosHostsByCNPJ(ctx context.Context, cnpj, exceptID string) ([]repo.Usuario, error) {
	var out []repo.Usuario
	for _, u := range s.usuarios {
		if u.Role == repo.RoleHost && u.CNPJ == cnpj && u.ID != exceptID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubRepo) CompanyHostIDs(ctx context.Context, u *repo.Usuario) []string {
	var ids []string
	for _, other := range s.usuarios {
		if other.Role == repo.RoleHost && other.CNPJ == u.CNPJ {
			ids = append(ids, other.ID)
		}
	}
	if len(ids) == 0 {
		ids = []string{u.ID}
	}
	return ids
}

func novoService(r authRepository) *AuthService {
	return &AuthService{
		repo: r,
		jwt:  auth.NewJWTManager("segredo-de-teste", 15*time.Minute),
	}
}

func TestLoginCredenciaisInvalidasUnificadas(t *testing.T) {
	stub := novoStub()
	hash, err := auth.Hash("senha-certa")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	stub.usuarios["h1"] = &repo.Usuario{ID: "h1", Nome: "Alice", CNPJ: "11111111000111", Role: repo.RoleHost}
	stub.credenciais["h1"] = hash

	svc := novoService(stub)
	ctx := context.Background()

	// Usuário inexistente e senha errada caem no mesmo erro.
	if _, err := svc.Login(ctx, "11111111000111", "Ninguém", "x"); !errors.Is(err, ErrCredenciaisInvalidas) {
		t.Fatalf("usuário inexistente: %v", err)
	}
	if _, err := svc.Login(ctx, "11111111000111", "Alice", "senha-errada"); !errors.Is(err, ErrCredenciaisInvalidas) {
		t.Fatalf("senha errada: %v", err)
	}

	result, err := svc.Login(ctx, "11.111.111/0001-11", "Alice", "senha-certa")
	if err != nil {
		t.Fatalf("login válido: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("login não emitiu token")
	}

	claims, err := svc.jwt.ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "h1" || claims.Role != repo.RoleHost {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestAddEmployeeDesfazUsuarioSemCredencial(t *testing.T) {
	stub := novoStub()
	stub.falhaCredencial = errors.New("escrita rejeitada")
	host := &repo.Usuario{ID: "h1", Nome: "Alice", CNPJ: "11111111000111", Role: repo.RoleHost}
	stub.usuarios["h1"] = host

	svc := novoService(stub)

	_, err := svc.AddEmployee(context.Background(), host, NovoFuncionario{
		Nome: "Carla", Email: "carla@ex.com", Role: repo.RoleFuncionario, Senha: "segredo123",
	})
	if err == nil {
		t.Fatal("cadastro deveria falhar junto com a credencial")
	}
	if len(stub.removidos) != 1 {
		t.Fatalf("remoções compensatórias = %d, esperava 1", len(stub.removidos))
	}
	if _, ok := stub.usuarios[stub.removidos[0]]; ok {
		t.Fatal("usuário meio-criado continua na base")
	}
}

func TestAddEmployeeSomenteHost(t *testing.T) {
	stub := novoStub()
	func1 := &repo.Usuario{ID: "f1", Role: repo.RoleFuncionario, CNPJ: "11111111000111"}

	svc := novoService(stub)
	if _, err := svc.AddEmployee(context.Background(), func1, NovoFuncionario{
		Nome: "X", Email: "x@ex.com", Role: repo.RoleFuncionario, Senha: "segredo123",
	}); !errors.Is(err, ErrSomenteHost) {
		t.Fatalf("erro = %v, esperava ErrSomenteHost", err)
	}
}

func TestRemoveEmployeeProtegeHostSemeado(t *testing.T) {
	stub := novoStub()
	host := &repo.Usuario{ID: "h1", Role: repo.RoleHost, CNPJ: "11111111000111"}
	stub.usuarios["h1"] = host

	svc := novoService(stub)
	err := svc.RemoveEmployee(context.Background(), host, store.BootstrapHostID)
	if !errors.Is(err, ErrUsuarioProtegido) {
		t.Fatalf("erro = %v, esperava ErrUsuarioProtegido", err)
	}
}

func TestListEmployeesOrdenadoPorNome(t *testing.T) {
	stub := novoStub()
	host := &repo.Usuario{ID: "h1", Nome: "Alice", CNPJ: "11111111000111", Role: repo.RoleHost}
	stub.usuarios["h1"] = host
	stub.usuarios["h2"] = &repo.Usuario{ID: "h2", Nome: "Zeca", CNPJ: "11111111000111", Role: repo.RoleHost}
	hid := "h1"
	stub.usuarios["f1"] = &repo.Usuario{ID: "f1", Nome: "Carla", CNPJ: "11111111000111", Role: repo.RoleFuncionario, HostID: &hid}
	stub.usuarios["f2"] = &repo.Usuario{ID: "f2", Nome: "Bruno", CNPJ: "11111111000111", Role: repo.RoleFuncionario, HostID: &hid}

	svc := novoService(stub)
	equipe, err := svc.ListEmployees(context.Background(), host)
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(equipe) != 3 {
		t.Fatalf("equipe = %d, esperava 3 (dois funcionários + outro host)", len(equipe))
	}
	if equipe[0].Nome != "Bruno" || equipe[1].Nome != "Carla" || equipe[2].Nome != "Zeca" {
		nomes := []string{equipe[0].Nome, equipe[1].Nome, equipe[2].Nome}
		t.Fatalf("ordem = %v, esperava alfabética", nomes)
	}
}
