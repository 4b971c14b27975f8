package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// statement accumulates SQL text and its arguments.
type statement struct {
	d    dialect
	sql  strings.Builder
	args []any
	err  error
}

func (st *statement) write(parts ...string) {
	for _, p := range parts {
		st.sql.WriteString(p)
	}
}

func (st *statement) ident(name string) {
	if !identifier.MatchString(name) {
		if st.err == nil {
			st.err = fmt.Errorf("sqlstore: invalid identifier %q", name)
		}
		return
	}
	st.write(`"`, name, `"`)
}

func (st *statement) arg(v any) {
	st.args = append(st.args, v)
	st.write(st.d.Placeholder(len(st.args)))
}

func (st *statement) where(filter map[string]any) {
	if len(filter) == 0 {
		return
	}
	st.write(" WHERE ")
	for i, col := range sortedKeys(filter) {
		if i > 0 {
			st.write(" AND ")
		}
		st.ident(col)
		if v := filter[col]; v == nil {
			st.write(" IS NULL")
		} else {
			st.write(" = ")
			st.arg(v)
		}
	}
}

func buildSelect(d dialect, container string, p storage.Payload) *statement {
	st := &statement{d: d}
	st.write("SELECT * FROM ")
	st.ident(container)
	st.where(p.Filter)
	if p.Order != "" {
		st.write(" ORDER BY ")
		st.ident(p.Order)
	}
	return st
}

func buildInsert(d dialect, container string, p storage.Payload) *statement {
	st := &statement{d: d}
	st.write("INSERT INTO ")
	st.ident(container)

	if len(p.Values) == 0 {
		st.write(" DEFAULT VALUES RETURNING *")
		return st
	}

	cols := sortedKeys(p.Values)
	st.write(" (")
	for i, col := range cols {
		if i > 0 {
			st.write(", ")
		}
		st.ident(col)
	}
	st.write(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			st.write(", ")
		}
		st.arg(p.Values[col])
	}
	st.write(") RETURNING *")
	return st
}

func buildUpdate(d dialect, container string, p storage.Payload) *statement {
	st := &statement{d: d}
	if len(p.Values) == 0 && len(p.Touch) == 0 {
		st.err = fmt.Errorf("sqlstore: update of %q without values", container)
		return st
	}

	st.write("UPDATE ")
	st.ident(container)
	st.write(" SET ")

	first := true
	sep := func() {
		if !first {
			st.write(", ")
		}
		first = false
	}
	for _, col := range sortedKeys(p.Values) {
		sep()
		st.ident(col)
		st.write(" = ")
		st.arg(p.Values[col])
	}
	for _, col := range p.Touch {
		sep()
		st.ident(col)
		st.write(" = CURRENT_TIMESTAMP")
	}

	st.where(p.Filter)
	return st
}

func buildDelete(d dialect, container string, p storage.Payload) *statement {
	st := &statement{d: d}
	st.write("DELETE FROM ")
	st.ident(container)
	st.where(p.Filter)
	return st
}

// builders maps operations to statement builders (no switch).
var builders = map[storage.Operation]func(dialect, string, storage.Payload) *statement{
	storage.OpSelect: buildSelect,
	storage.OpInsert: buildInsert,
	storage.OpUpdate: buildUpdate,
	storage.OpDelete: buildDelete,
}

// returnsRows lists the operations answered with rows rather than a count.
var returnsRows = map[storage.Operation]bool{
	storage.OpSelect: true,
	storage.OpInsert: true,
}

func execute(ctx context.Context, q querier, d dialect, container string, op storage.Operation, p storage.Payload) (*storage.Response, error) {
	build, ok := builders[op]
	if !ok {
		return nil, fmt.Errorf("sqlstore: unsupported operation %q", op)
	}
	st := build(d, container, p)
	if st.err != nil {
		return nil, st.err
	}

	if returnsRows[op] {
		rows, err := q.QueryContext(ctx, st.sql.String(), st.args...)
		if err != nil {
			return handleError(ctx, d, err)
		}
		out, err := scanRows(rows)
		if err != nil {
			return handleError(ctx, d, err)
		}
		return &storage.Response{Rows: out, Count: int64(len(out))}, nil
	}

	res, err := q.ExecContext(ctx, st.sql.String(), st.args...)
	if err != nil {
		return handleError(ctx, d, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	return &storage.Response{Count: n}, nil
}

// handleError reports engine errors as the medium's error text and keeps
// connection errors as Go errors / Traduit les erreurs du moteur
func handleError(ctx context.Context, d dialect, err error) (*storage.Response, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if d.Rejected(err) {
		return &storage.Response{Error: err.Error()}, nil
	}
	return nil, err
}

func scanRows(rows *sql.Rows) ([]storage.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []storage.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(storage.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
