package util

import "github.com/google/uuid"

// NewID gera um identificador aleatório de 128 bits. Substitui o esquema
// antigo timestamp+sufixo, cuja unicidade era apenas probabilística.
func NewID() string {
	return uuid.NewString()
}
