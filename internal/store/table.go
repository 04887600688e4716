package store

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/praticaeng/obrasflow/internal/util"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var (
	errTabelaDesconhecida = errors.New("tabela desconhecida")
	errColunaInvalida     = errors.New("nome de coluna inválido")
)

// Query executa um statement de leitura com bind posicional e devolve as
// linhas como mapas coluna-valor, na ordem do resultado.
func (e *Engine) Query(ctx context.Context, sqlStr string, params ...any) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, sqlStr, params...)
	if err != nil {
		return nil, &QueryError{SQL: sqlStr, Params: params, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{SQL: sqlStr, Params: params, Err: err}
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{SQL: sqlStr, Params: params, Err: err}
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: sqlStr, Params: params, Err: err}
	}

	return result, nil
}

// Exec executa um statement mutante e, em caso de sucesso, persiste a
// imagem completa no slot durável antes de devolver o controle. Em caso
// de falha a persistência não é acionada.
func (e *Engine) Exec(ctx context.Context, sqlStr string, params ...any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.db.ExecContext(ctx, sqlStr, params...); err != nil {
		return &ExecError{SQL: sqlStr, Params: params, Err: err}
	}

	e.persist(ctx)
	return nil
}

// InsertOne insere um registro, gerando id quando ausente, e devolve o id.
func (e *Engine) InsertOne(ctx context.Context, table string, fields map[string]any) (string, error) {
	if !ValidTable(table) {
		return "", &ExecError{SQL: table, Err: errTabelaDesconhecida}
	}

	id, ok := fields["id"].(string)
	if !ok || id == "" {
		id = util.NewID()
	}

	cols := []string{"id"}
	values := []any{id}
	for _, col := range sortedColumns(fields) {
		if col == "id" {
			continue
		}
		if !identRe.MatchString(col) {
			return "", &ExecError{SQL: table, Err: errColunaInvalida}
		}
		cols = append(cols, col)
		values = append(values, fields[col])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	sqlStr := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders + ")"

	if err := e.Exec(ctx, sqlStr, values...); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateOne atualiza os campos nomeados e o updated_at, escopado por id.
// Zero linhas afetadas não é distinguido de sucesso.
func (e *Engine) UpdateOne(ctx context.Context, table, id string, fields map[string]any) error {
	if !ValidTable(table) {
		return &ExecError{SQL: table, Err: errTabelaDesconhecida}
	}

	var sets []string
	var values []any
	for _, col := range sortedColumns(fields) {
		if !identRe.MatchString(col) {
			return &ExecError{SQL: table, Err: errColunaInvalida}
		}
		sets = append(sets, col+" = ?")
		values = append(values, fields[col])
	}
	values = append(values, id)

	sqlStr := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + ", updated_at = datetime('now') WHERE id = ?"
	return e.Exec(ctx, sqlStr, values...)
}

// DeleteOne remove o registro por id; linhas dependentes caem pelos
// cascades declarados no schema, não por código.
func (e *Engine) DeleteOne(ctx context.Context, table, id string) error {
	if !ValidTable(table) {
		return &ExecError{SQL: table, Err: errTabelaDesconhecida}
	}
	return e.Exec(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
}

// SelectAll lê todas as linhas da tabela, com cláusula WHERE opcional.
func (e *Engine) SelectAll(ctx context.Context, table, where string, params ...any) ([]map[string]any, error) {
	if !ValidTable(table) {
		return nil, &QueryError{SQL: table, Err: errTabelaDesconhecida}
	}
	sqlStr := "SELECT * FROM " + table
	if where != "" {
		sqlStr += " WHERE " + where
	}
	return e.Query(ctx, sqlStr, params...)
}

// SelectOne devolve a primeira linha encontrada, ou nil quando não há.
func (e *Engine) SelectOne(ctx context.Context, table, where string, params ...any) (map[string]any, error) {
	rows, err := e.SelectAll(ctx, table, where, params...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func sortedColumns(fields map[string]any) []string {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
