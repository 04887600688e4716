package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/praticaeng/obrasflow/internal/repo"
	"github.com/praticaeng/obrasflow/internal/service"
	"github.com/praticaeng/obrasflow/internal/util"
)

// Login autentica pelo trio (cnpj, nome, senha) e devolve o token de
// acesso junto ao usuário.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CNPJ  string `json:"cnpj"`
		Nome  string `json:"nome"`
		Senha string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Nome) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "cnpj, nome e senha são obrigatórios", nil)
		return
	}
	if err := util.ValidateCNPJ(payload.CNPJ); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.CNPJ, payload.Nome, payload.Senha)
	if err != nil {
		if errors.Is(err, service.ErrCredenciaisInvalidas) {
			WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível autenticar", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"usuario":      result.Usuario,
		"access_token": result.AccessToken,
	})
}

// Me devolve o usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}
	WriteJSON(w, http.StatusOK, usuario)
}

// ListEquipe lista a equipe da empresa do host autenticado.
func (h *Handler) ListEquipe(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	equipe, err := h.authService.ListEmployees(r.Context(), usuario)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar a equipe", nil)
		return
	}
	if equipe == nil {
		equipe = []repo.Usuario{}
	}

	WriteJSON(w, http.StatusOK, equipe)
}

// CreateFuncionario cadastra um membro da equipe.
func (h *Handler) CreateFuncionario(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
		Role  string `json:"role"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	novo, err := h.authService.AddEmployee(r.Context(), usuario, service.NovoFuncionario{
		Nome:  payload.Nome,
		Email: payload.Email,
		Role:  payload.Role,
		Senha: payload.Senha,
	})
	if err != nil {
		if errors.Is(err, service.ErrSomenteHost) {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusCreated, novo)
}

// DeleteFuncionario remove um membro da equipe; o host semeado é protegido.
func (h *Handler) DeleteFuncionario(w http.ResponseWriter, r *http.Request) {
	usuario, err := h.usuarioAtual(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado", nil)
		return
	}

	err = h.authService.RemoveEmployee(r.Context(), usuario, pathParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSomenteHost):
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		case errors.Is(err, service.ErrUsuarioProtegido):
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover", nil)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removido"})
}
