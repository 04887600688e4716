package util

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// ValidateCNPJ exige 14 dígitos, aceitando a pontuação usual (00.000.000/0000-00).
func ValidateCNPJ(cnpj string) error {
	digits := 0
	for _, r := range cnpj {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return errors.New("cnpj inválido")
		}
	}
	if digits != 14 {
		return errors.New("cnpj deve ter 14 dígitos")
	}
	return nil
}

// NormalizeCNPJ remove a pontuação, mantendo apenas os dígitos.
func NormalizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}
