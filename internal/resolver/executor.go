package resolver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one result row keyed by the projected column names.
type Row = map[string]any

// Executor runs a composed statement and materialises its rows.
type Executor interface {
	Query(ctx context.Context, sqlStr string, args ...any) ([]Row, error)
}

// PgxExecutor runs statements on a pgx pool.
type PgxExecutor struct {
	Pool *pgxpool.Pool
}

func (e PgxExecutor) Query(ctx context.Context, sqlStr string, args ...any) ([]Row, error) {
	if e.Pool == nil {
		return nil, fmt.Errorf("pgx executor: pool is nil")
	}
	rows, err := e.Pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPgxRows(rows)
}

// SQLExecutor runs statements through database/sql (SQLite, pgx stdlib).
type SQLExecutor struct {
	DB *sql.DB
}

func (e SQLExecutor) Query(ctx context.Context, sqlStr string, args ...any) ([]Row, error) {
	if e.DB == nil {
		return nil, fmt.Errorf("sql executor: db is nil")
	}
	rows, err := e.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLRows(rows)
}

// scanPgxRows maps every row by the column names the query projected.
func scanPgxRows(rows pgx.Rows) ([]Row, error) {
	fds := rows.FieldDescriptions()
	keys := make([]string, len(fds))
	for i, fd := range fds {
		keys[i] = fd.Name
	}

	out := make([]Row, 0, 64)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		n := min(len(vals), len(keys))
		row := make(Row, n)
		for i := 0; i < n; i++ {
			row[keys[i]] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSQLRows(rows *sql.Rows) ([]Row, error) {
	keys, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, 64)
	for rows.Next() {
		vals := make([]any, len(keys))
		ptrs := make([]any, len(keys))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(keys))
		for i, k := range keys {
			if b, ok := vals[i].([]byte); ok {
				row[k] = string(b)
				continue
			}
			row[k] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
