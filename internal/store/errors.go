package store

import "fmt"

// InitError indica falha fatal ao construir ou restaurar a base embutida.
// Nenhuma operação que dependa da base pode prosseguir após este erro;
// não há fallback silencioso para uma base vazia.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("store: inicialização falhou: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// QueryError indica falha em um statement de leitura. Carrega o SQL e os
// parâmetros originais para diagnóstico.
type QueryError struct {
	SQL    string
	Params []any
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store: query falhou: %v (sql=%q)", e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ExecError indica falha em um statement de escrita. Quando ocorre, a
// persistência no slot durável não é acionada.
type ExecError struct {
	SQL    string
	Params []any
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("store: execução falhou: %v (sql=%q)", e.Err, e.SQL)
}

func (e *ExecError) Unwrap() error { return e.Err }
