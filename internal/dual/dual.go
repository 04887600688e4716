// Package dual decide, chamada a chamada, qual backend relacional serve a
// requisição: o serviço remoto primeiro e, numa única falha, a base
// embutida. O desvio não é silencioso: o resultado carrega a origem para
// que chamadores e testes possam afirmar qual caminho respondeu.
package dual

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Origem identifica qual backend serviu a chamada.
type Origem int

const (
	// OrigemRemota indica resposta do serviço relacional remoto.
	OrigemRemota Origem = iota
	// OrigemLocal indica fallback para a base embutida.
	OrigemLocal
	// OrigemFalha indica que ambos os caminhos falharam.
	OrigemFalha
)

func (o Origem) String() string {
	switch o {
	case OrigemRemota:
		return "remota"
	case OrigemLocal:
		return "local"
	default:
		return "falha"
	}
}

// Resultado embala o valor servido junto com a origem que o produziu.
type Resultado[T any] struct {
	Valor  T
	Origem Origem
}

var errSemBackend = errors.New("dual: nenhum backend disponível")

// Ler tenta a leitura remota uma única vez, sem retry antes do desvio,
// e recorre à base embutida em caso de falha. remoto nil (implantação sem
// serviço remoto) vai direto ao caminho local.
func Ler[T any](ctx context.Context, operacao string, remoto, local func(context.Context) (T, error)) (Resultado[T], error) {
	return executar(ctx, operacao, remoto, local)
}

// Gravar aplica a mesma política às mutações: uma tentativa remota e, na
// falha, a escrita segue para a base embutida.
func Gravar[T any](ctx context.Context, operacao string, remoto, local func(context.Context) (T, error)) (Resultado[T], error) {
	return executar(ctx, operacao, remoto, local)
}

func executar[T any](ctx context.Context, operacao string, remoto, local func(context.Context) (T, error)) (Resultado[T], error) {
	var zero T

	if remoto != nil {
		valor, err := remoto(ctx)
		if err == nil {
			return Resultado[T]{Valor: valor, Origem: OrigemRemota}, nil
		}
		log.Warn().Err(err).Str("operacao", operacao).
			Msg("backend remoto indisponível, usando base embutida")
	}

	if local == nil {
		return Resultado[T]{Valor: zero, Origem: OrigemFalha}, errSemBackend
	}

	valor, err := local(ctx)
	if err != nil {
		return Resultado[T]{Valor: zero, Origem: OrigemFalha}, err
	}
	return Resultado[T]{Valor: valor, Origem: OrigemLocal}, nil
}
