package remote

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praticaeng/obrasflow/internal/store"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var (
	// ErrTabelaInvalida indica nome de tabela fora do schema conhecido.
	ErrTabelaInvalida = errors.New("remote: tabela fora do schema")
	// ErrColunaInvalida indica nome de coluna malformado.
	ErrColunaInvalida = errors.New("remote: nome de coluna inválido")
)

// Filtro descreve as restrições suportadas pelo serviço relacional
// remoto: igualdade, pertencimento (IN), ordenação e limite.
type Filtro struct {
	Eq      map[string]any
	In      map[string][]any
	OrderBy string
	Desc    bool
	Limit   int
}

// Client fala com o serviço relacional remoto por tabela. Toda operação é
// falível; a decisão de fallback fica com o chamador (façade dual), que
// nunca repete a tentativa remota.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient cria o cliente sobre o pool informado.
func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}

// NewPool abre e valida um pool de conexões com o serviço remoto.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// where monta a cláusula e os argumentos a partir do filtro. Identificadores
// passam pela allow-list do schema; valores sempre via bind.
func (f Filtro) where() (string, []any, error) {
	var conds []string
	var args []any

	appendCond := func(col, expr string) error {
		if !identRe.MatchString(col) {
			return ErrColunaInvalida
		}
		conds = append(conds, expr)
		return nil
	}

	for _, col := range sortedKeys(f.Eq) {
		args = append(args, f.Eq[col])
		if err := appendCond(col, col+" = $"+strconv.Itoa(len(args))); err != nil {
			return "", nil, err
		}
	}
	for _, col := range sortedSliceKeys(f.In) {
		args = append(args, f.In[col])
		if err := appendCond(col, col+" = ANY($"+strconv.Itoa(len(args))+")"); err != nil {
			return "", nil, err
		}
	}

	clause := ""
	if len(conds) > 0 {
		clause = " WHERE " + strings.Join(conds, " AND ")
	}
	return clause, args, nil
}

func (f Filtro) tail() (string, error) {
	var b strings.Builder
	if f.OrderBy != "" {
		if !identRe.MatchString(f.OrderBy) {
			return "", ErrColunaInvalida
		}
		b.WriteString(" ORDER BY " + f.OrderBy)
		if f.Desc {
			b.WriteString(" DESC")
		}
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	}
	return b.String(), nil
}

// Select lê linhas da tabela segundo o filtro.
func (c *Client) Select(ctx context.Context, table string, f Filtro) ([]map[string]any, error) {
	if !store.ValidTable(table) {
		return nil, ErrTabelaInvalida
	}
	clause, args, err := f.where()
	if err != nil {
		return nil, err
	}
	tail, err := f.tail()
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx, "SELECT * FROM "+table+clause+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRows(rows)
}

// InsertReturning insere e devolve a linha persistida.
func (c *Client) InsertReturning(ctx context.Context, table string, fields map[string]any) (map[string]any, error) {
	if !store.ValidTable(table) {
		return nil, ErrTabelaInvalida
	}

	cols := sortedKeys(fields)
	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		if !identRe.MatchString(col) {
			return nil, ErrColunaInvalida
		}
		placeholders = append(placeholders, "$"+strconv.Itoa(i+1))
		args = append(args, fields[col])
	}

	sqlStr := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ") RETURNING *"

	rows, err := c.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, pgx.ErrNoRows
	}
	return result[0], nil
}

// UpdateReturning atualiza pelas igualdades do filtro e devolve as linhas.
func (c *Client) UpdateReturning(ctx context.Context, table string, f Filtro, fields map[string]any) ([]map[string]any, error) {
	if !store.ValidTable(table) {
		return nil, ErrTabelaInvalida
	}

	var sets []string
	var args []any
	for _, col := range sortedKeys(fields) {
		if !identRe.MatchString(col) {
			return nil, ErrColunaInvalida
		}
		args = append(args, fields[col])
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	var conds []string
	for _, col := range sortedKeys(f.Eq) {
		if !identRe.MatchString(col) {
			return nil, ErrColunaInvalida
		}
		args = append(args, f.Eq[col])
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}

	sqlStr := "UPDATE " + table + " SET " + strings.Join(sets, ", ")
	if len(conds) > 0 {
		sqlStr += " WHERE " + strings.Join(conds, " AND ")
	}
	sqlStr += " RETURNING *"

	rows, err := c.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRows(rows)
}

// DeleteWhere remove pelas igualdades do filtro.
func (c *Client) DeleteWhere(ctx context.Context, table string, f Filtro) error {
	if !store.ValidTable(table) {
		return ErrTabelaInvalida
	}
	clause, args, err := f.where()
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, "DELETE FROM "+table+clause, args...)
	return err
}

func collectRows(rows pgx.Rows) ([]map[string]any, error) {
	var result []map[string]any
	fields := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		result = append(result, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return result, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSliceKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
