package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/praticaeng/obrasflow/internal/auth"
	"github.com/praticaeng/obrasflow/internal/config"
	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/service"
	"github.com/praticaeng/obrasflow/internal/store"
)

// A API inteira sobre uma base embutida descartável, sem backend remoto e
// sem Redis.
func montarAPI(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	engine, err := store.Open(context.Background(), store.Options{
		Slot:       &store.FileSlot{Path: filepath.Join(dir, "slot.img")},
		ScratchDir: dir,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	repository := repo.New(engine)
	jwtManager := auth.NewJWTManager("segredo-de-teste", 15*time.Minute)

	cfg := &config.Config{
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}

	return NewRouter(cfg, Deps{
		Engine:      engine,
		Repo:        repository,
		AuthService: service.NewAuthService(repository, jwtManager),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func dataDe(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorBody      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("envelope inválido: %v (%s)", err, rec.Body.String())
	}
	if envelope.Error != nil {
		t.Fatalf("resposta com erro: %s %s", envelope.Error.Code, envelope.Error.Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("data inválido: %v (%s)", err, envelope.Data)
	}
}

func loginHost(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"cnpj":  "12345678000190",
		"nome":  "Fernando Antunes",
		"senha": "senha123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login do host semeado: status %d (%s)", rec.Code, rec.Body.String())
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	dataDe(t, rec, &payload)
	return payload.AccessToken
}

func TestLoginRejeitaSenhaErrada(t *testing.T) {
	h := montarAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"cnpj":  "12345678000190",
		"nome":  "Fernando Antunes",
		"senha": "senha-errada",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, esperava 401", rec.Code)
	}
}

func TestRotasPrivadasExigemToken(t *testing.T) {
	h := montarAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/obras/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, esperava 401", rec.Code)
	}
}

func TestFluxoPermissoesObra(t *testing.T) {
	h := montarAPI(t)
	hostToken := loginHost(t, h)

	// Host cria duas obras.
	var obra1, obra2 repo.Obra
	rec := doJSON(t, h, http.MethodPost, "/v1/obras/", hostToken, map[string]any{
		"title":      "Obra Sul",
		"endereco":   "Av. Um, 100",
		"start_date": "2026-03-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("criar obra 1: status %d (%s)", rec.Code, rec.Body.String())
	}
	dataDe(t, rec, &obra1)

	rec = doJSON(t, h, http.MethodPost, "/v1/obras/", hostToken, map[string]any{
		"title":      "Obra Norte",
		"endereco":   "Av. Dois, 200",
		"start_date": "2026-04-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("criar obra 2: status %d", rec.Code)
	}
	dataDe(t, rec, &obra2)

	// Host enxerga as duas.
	var lista struct {
		Items  []repo.Obra `json:"items"`
		Origem string      `json:"origem"`
	}
	rec = doJSON(t, h, http.MethodGet, "/v1/obras/", hostToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("listar como host: status %d", rec.Code)
	}
	dataDe(t, rec, &lista)
	if len(lista.Items) != 2 {
		t.Fatalf("host vê %d obras, esperava 2", len(lista.Items))
	}
	if lista.Origem != "local" {
		t.Fatalf("origem = %q, esperava local (sem backend remoto)", lista.Origem)
	}

	// Host cadastra um funcionário.
	var funcionario repo.Usuario
	rec = doJSON(t, h, http.MethodPost, "/v1/equipe/", hostToken, map[string]string{
		"nome":  "Beatriz Lima",
		"email": "beatriz@pratica.eng.br",
		"role":  "funcionario",
		"senha": "outrasenha1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("criar funcionário: status %d (%s)", rec.Code, rec.Body.String())
	}
	dataDe(t, rec, &funcionario)

	rec = doJSON(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"cnpj":  "12345678000190",
		"nome":  "Beatriz Lima",
		"senha": "outrasenha1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login do funcionário: status %d (%s)", rec.Code, rec.Body.String())
	}
	var loginPayload struct {
		AccessToken string `json:"access_token"`
	}
	dataDe(t, rec, &loginPayload)
	funcToken := loginPayload.AccessToken

	// Sem concessão alguma, o funcionário não vê nada (fail-closed).
	rec = doJSON(t, h, http.MethodGet, "/v1/obras/", funcToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("listar como funcionário: status %d", rec.Code)
	}
	dataDe(t, rec, &lista)
	if len(lista.Items) != 0 {
		t.Fatalf("funcionário sem concessão vê %d obras, esperava 0", len(lista.Items))
	}

	// Host concede a obra 1; o funcionário passa a ver exatamente ela.
	rec = doJSON(t, h, http.MethodPut,
		"/v1/permissoes/obras/"+funcionario.ID+"/"+obra1.ID, hostToken,
		map[string]bool{"can_view": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("conceder permissão: status %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/obras/", funcToken, nil)
	dataDe(t, rec, &lista)
	if len(lista.Items) != 1 || lista.Items[0].ID != obra1.ID {
		t.Fatalf("funcionário vê %v, esperava só a obra %s", lista.Items, obra1.ID)
	}

	// Obra sem concessão continua bloqueada no acesso direto.
	rec = doJSON(t, h, http.MethodGet, "/v1/obras/"+obra2.ID, funcToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("acesso direto sem concessão: status %d, esperava 403", rec.Code)
	}

	// Funcionário não gerencia permissões.
	rec = doJSON(t, h, http.MethodPut,
		"/v1/permissoes/obras/"+funcionario.ID+"/"+obra2.ID, funcToken,
		map[string]bool{"can_view": true})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("funcionário concedendo permissão: status %d, esperava 403", rec.Code)
	}
}

func TestMovimentacaoAtualizaFerramenta(t *testing.T) {
	h := montarAPI(t)
	hostToken := loginHost(t, h)

	var obra repo.Obra
	rec := doJSON(t, h, http.MethodPost, "/v1/obras/", hostToken, map[string]any{
		"title":      "Obra Leste",
		"endereco":   "Rua Três, 30",
		"start_date": "2026-05-01",
	})
	dataDe(t, rec, &obra)

	var ferramenta repo.Ferramenta
	rec = doJSON(t, h, http.MethodPost, "/v1/ferramentas/", hostToken, map[string]any{
		"name": "Furadeira Bosch",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("criar ferramenta: status %d (%s)", rec.Code, rec.Body.String())
	}
	dataDe(t, rec, &ferramenta)

	rec = doJSON(t, h, http.MethodPost, "/v1/movimentacoes", hostToken, map[string]any{
		"ferramenta_id": ferramenta.ID,
		"para":          map[string]string{"tipo": "obra", "id": obra.ID},
		"note":          "uso na laje",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("movimentar: status %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/ferramentas/"+ferramenta.ID, hostToken, nil)
	var depois repo.Ferramenta
	dataDe(t, rec, &depois)
	if depois.Status != repo.FerramentaEmUso {
		t.Fatalf("status = %s, esperava em_uso", depois.Status)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/ferramentas/"+ferramenta.ID+"/movimentacoes", hostToken, nil)
	var movs struct {
		Items  []repo.Movimentacao `json:"items"`
		Origem string              `json:"origem"`
	}
	dataDe(t, rec, &movs)
	if len(movs.Items) != 1 || movs.Items[0].Note != "uso na laje" {
		t.Fatalf("movimentações = %+v", movs.Items)
	}
	if movs.Origem != "local" {
		t.Fatalf("origem = %q, esperava local (sem backend remoto)", movs.Origem)
	}

	// O histórico registra cadastro e movimentação.
	rec = doJSON(t, h, http.MethodGet, "/v1/historico", hostToken, nil)
	var historico []repo.Historico
	dataDe(t, rec, &historico)
	if len(historico) != 2 {
		t.Fatalf("histórico = %d entradas, esperava 2", len(historico))
	}
}

func TestImagensDeObra(t *testing.T) {
	h := montarAPI(t)
	hostToken := loginHost(t, h)

	var obra repo.Obra
	rec := doJSON(t, h, http.MethodPost, "/v1/obras/", hostToken, map[string]any{
		"title":      "Obra Oeste",
		"endereco":   "Rua Quatro, 40",
		"start_date": "2026-06-01",
	})
	dataDe(t, rec, &obra)

	rec = doJSON(t, h, http.MethodPost, "/v1/obras/"+obra.ID+"/imagens", hostToken, map[string]any{
		"image_url":   "https://cdn.pratica.eng.br/obras/fundacao.jpg",
		"description": "fundação concluída",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("anexar imagem: status %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/obras/"+obra.ID+"/imagens", hostToken, nil)
	var imagens struct {
		Items  []repo.ObraImage `json:"items"`
		Origem string           `json:"origem"`
	}
	dataDe(t, rec, &imagens)
	if len(imagens.Items) != 1 || imagens.Items[0].Description != "fundação concluída" {
		t.Fatalf("imagens = %+v", imagens.Items)
	}
	if imagens.Origem != "local" {
		t.Fatalf("origem = %q, esperava local (sem backend remoto)", imagens.Origem)
	}
}

func TestEquipeProtegeHostSemeado(t *testing.T) {
	h := montarAPI(t)
	hostToken := loginHost(t, h)

	rec := doJSON(t, h, http.MethodDelete, "/v1/equipe/"+store.BootstrapHostID, hostToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remover host semeado: status %d, esperava 403", rec.Code)
	}
}
