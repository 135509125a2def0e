package resolver

import (
	"context"
	"fmt"
	"strconv"

	"LiveTable/internal/logger"
	"LiveTable/internal/query"

	"github.com/Masterminds/squirrel"
)

// Page is one page of a table.
type Page struct {
	Rows        []Row `json:"rows"`
	Page        int   `json:"page"`
	PerPage     int   `json:"per_page"`
	HasNextPage bool  `json:"has_next_page"`
}

func run(ctx context.Context, exec Executor, q squirrel.SelectBuilder, endpoint string) ([]Row, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	logger.Debug("sql", map[string]any{
		"endpoint": endpoint,
		"sql":      sqlStr,
		"args":     args,
	})
	rows, err := exec.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", endpoint, err)
	}
	return rows, nil
}

// FetchPage runs a query composed with p and strips the overfetched row:
// PerPage+1 rows back means a next page exists.
func FetchPage(ctx context.Context, exec Executor, q squirrel.SelectBuilder, p query.Pagination) (Page, error) {
	rows, err := run(ctx, exec, q, "list")
	if err != nil {
		return Page{}, err
	}
	page := Page{Rows: rows, Page: p.Page, PerPage: p.PerPage}
	if p.Enabled && p.PerPage > 0 && len(rows) > p.PerPage {
		page.Rows = rows[:p.PerPage]
		page.HasNextPage = true
	}
	if page.Rows == nil {
		page.Rows = []Row{}
	}
	return page, nil
}

// FetchAll runs q and returns every row.
func FetchAll(ctx context.Context, exec Executor, q squirrel.SelectBuilder) ([]Row, error) {
	rows, err := run(ctx, exec, q, "export")
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// FetchCount runs a COUNT query and returns its single value.
func FetchCount(ctx context.Context, exec Executor, q squirrel.SelectBuilder) (int64, error) {
	rows, err := run(ctx, exec, q, "count")
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 || len(rows[0]) != 1 {
		return 0, fmt.Errorf("count query returned %d rows", len(rows))
	}
	for _, v := range rows[0] {
		return toInt64(v)
	}
	return 0, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected count value %T", v)
}

// Infinite loads a table page after page, appending rows instead of
// replacing them. It drives the same overfetch primitive as FetchPage.
type Infinite struct {
	Exec  Executor
	Build func(query.Options) (squirrel.SelectBuilder, error)
	Opts  query.Options

	Rows    []Row
	HasNext bool
	loaded  bool
}

// Next loads the following page. It returns false once the last page has
// been loaded.
func (in *Infinite) Next(ctx context.Context) (bool, error) {
	if in.loaded && !in.HasNext {
		return false, nil
	}
	if in.Opts.Pagination.Page < 1 {
		in.Opts.Pagination.Page = 1
	}
	in.Opts.Pagination.Enabled = true
	q, err := in.Build(in.Opts)
	if err != nil {
		return false, err
	}
	page, err := FetchPage(ctx, in.Exec, q, in.Opts.Pagination)
	if err != nil {
		return false, err
	}
	in.Rows = append(in.Rows, page.Rows...)
	in.HasNext = page.HasNextPage
	in.loaded = true
	in.Opts.Pagination.Page++
	return true, nil
}
