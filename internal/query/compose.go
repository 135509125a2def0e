package query

import (
	"fmt"

	"LiveTable/internal/filter"
	"LiveTable/internal/model"

	"github.com/Masterminds/squirrel"
)

// Options is everything one request contributes to a query.
type Options struct {
	Sort        filter.SortSpec
	SortEnabled bool
	Pagination  Pagination
	Filters     filter.State
	Search      string
	SearchMode  SearchMode
	Dialect     Dialect
}

// ListResources composes the page query of a table. The steps run in a fixed
// order: base, joins, projection, filters with search, sort, transformers,
// pagination. The result is not executed.
func ListResources(fields []model.FieldDescriptor, opts Options, provider Provider) (squirrel.SelectBuilder, error) {
	q, err := compose(fields, opts, provider, opts.SortEnabled)
	if err != nil {
		return q, err
	}
	q = Paginate(q, opts.Pagination)
	return q.PlaceholderFormat(opts.Dialect.Placeholder()), nil
}

// CountResources counts the rows ListResources would return over all pages.
func CountResources(fields []model.FieldDescriptor, opts Options, provider Provider) (squirrel.SelectBuilder, error) {
	opts.Sort = nil
	inner, err := compose(fields, opts, provider, false)
	if err != nil {
		return inner, err
	}
	return squirrel.Select("COUNT(*)").
		FromSelect(inner, "counted").
		PlaceholderFormat(opts.Dialect.Placeholder()), nil
}

// ExportResources composes the full result set with pagination disabled. A
// positive maxRows caps the number of rows.
func ExportResources(fields []model.FieldDescriptor, opts Options, provider Provider, maxRows uint64) (squirrel.SelectBuilder, error) {
	q, err := compose(fields, opts, provider, opts.SortEnabled)
	if err != nil {
		return q, err
	}
	if maxRows > 0 {
		q = q.Limit(maxRows)
	}
	return q.PlaceholderFormat(opts.Dialect.Placeholder()), nil
}

// compose runs every step but pagination.
func compose(fields []model.FieldDescriptor, opts Options, provider Provider, withSort bool) (squirrel.SelectBuilder, error) {
	// 1. base
	s := provider.schema()
	if s == nil {
		return squirrel.SelectBuilder{}, fmt.Errorf("resource provider has no schema")
	}
	q, err := provider.base()
	if err != nil {
		return q, err
	}

	// 2. joins, before anything refers to an association alias
	regular, transformers := filter.Split(opts.Filters)
	var names []string
	for _, f := range fields {
		names = append(names, model.FieldAssociations(f)...)
	}
	for _, f := range regular {
		names = append(names, filter.Associations(f, s)...)
	}
	if withSort {
		names = append(names, sortJoins(opts.Sort, fields)...)
	}
	joins, err := model.DetectJoins(s, names)
	if err != nil {
		return q, err
	}
	q = model.ApplyJoins(q, joins)

	// 3. projection
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		expr, err := s.FieldExpr(f)
		if err != nil {
			return q, err
		}
		cols = append(cols, expr+" AS "+model.QuoteIdentifier(f.Key))
	}
	q = q.Columns(cols...)

	// 4. regular filters and search as one condition
	var where squirrel.And
	for _, f := range regular {
		pred, err := filter.Predicate(f, s)
		if err != nil {
			return q, err
		}
		if pred != nil {
			where = append(where, pred)
		}
	}
	search, err := BuildSearch(opts.Search, fields, s, opts.SearchMode, opts.Dialect)
	if err != nil {
		return q, err
	}
	if search != nil {
		where = append(where, search)
	}
	if len(where) > 0 {
		q = q.Where(where)
	}

	// 5. sort
	if withSort {
		if q, err = ApplySort(q, opts.Sort, fields, s); err != nil {
			return q, err
		}
	}

	// 6. transformers, in declaration order
	for _, t := range transformers {
		if q, err = t.Apply(q); err != nil {
			return q, fmt.Errorf("filter %s: %w", t.URLKey, err)
		}
	}
	return q, nil
}
