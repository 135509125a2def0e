package query

import (
	"fmt"

	"LiveTable/internal/config"
	"LiveTable/internal/filter"
	"LiveTable/internal/model"
	"LiveTable/internal/params"

	"github.com/Masterminds/squirrel"
)

const (
	SearchParam  = "search"
	PageParam    = "page"
	PerPageParam = "per_page"
)

// Definition is what a table declares in code.
type Definition interface {
	Fields() []model.FieldDescriptor
	Filters() []filter.Filter
}

// OptionsDefinition is implemented by definitions that override table
// options.
type OptionsDefinition interface {
	TableOptions() map[string]any
}

// Table binds declarations to a resource provider. It is built once and
// shared read-only by every request.
type Table struct {
	Name     string
	schema   *model.Schema
	fields   []model.FieldDescriptor
	filters  []filter.Filter
	provider Provider
	options  map[string]any
}

// NewTable validates def against the provider's schema.
func NewTable(name string, def Definition, provider Provider) (*Table, error) {
	s := provider.schema()
	if s == nil {
		return nil, fmt.Errorf("table %s: provider has no schema", name)
	}
	fields := def.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s: no fields declared", name)
	}
	if err := s.ValidateFields(fields); err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	filters := def.Filters()
	if err := filter.CheckKeys(filters); err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	for _, f := range filters {
		if _, ok := f.(filter.Transformer); ok {
			continue
		}
		if _, err := model.DetectJoins(s, filter.Associations(f, s)); err != nil {
			return nil, fmt.Errorf("table %s filter %s: %w", name, f.Key(), err)
		}
	}
	t := &Table{Name: name, schema: s, fields: fields, filters: filters, provider: provider}
	if od, ok := def.(OptionsDefinition); ok {
		t.options = od.TableOptions()
	}
	return t, nil
}

// TableFromResource builds a table from a linked resource file.
func TableFromResource(res *model.Resource) (*Table, error) {
	filters, err := filter.DeclareAll(res.Filters)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", res.Name, err)
	}
	var provider Provider = FromSchema{Schema: &res.Schema}
	if res.Query != nil {
		fn, err := LookupCustomQuery(res.Query.Name)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", res.Name, err)
		}
		provider = FromQuery{Schema: &res.Schema, Fn: fn, Args: res.Query.Args}
	}
	return NewTable(res.Name, staticDefinition{fields: res.Fields, filters: filters, options: res.TableOptions}, provider)
}

type staticDefinition struct {
	fields  []model.FieldDescriptor
	filters []filter.Filter
	options map[string]any
}

func (d staticDefinition) Fields() []model.FieldDescriptor { return d.fields }
func (d staticDefinition) Filters() []filter.Filter        { return d.filters }
func (d staticDefinition) TableOptions() map[string]any    { return d.options }

func (t *Table) Schema() *model.Schema            { return t.schema }
func (t *Table) Fields() []model.FieldDescriptor { return t.fields }
func (t *Table) Filters() []filter.Filter        { return t.filters }
func (t *Table) TableOptions() map[string]any    { return t.options }

// ResolveOptions layers app and the table's own overrides over the defaults.
func (t *Table) ResolveOptions(app map[string]any) (config.TableOptions, error) {
	opts, err := config.ResolveTableOptions(app, t.options)
	if err != nil {
		return opts, fmt.Errorf("table %s: %w", t.Name, err)
	}
	return opts, nil
}

// OptionsFromRequest decodes request parameters into query options under the
// resolved table options.
func (t *Table) OptionsFromRequest(root *params.Node, to config.TableOptions, d Dialect) Options {
	opts := Options{
		Filters:     filter.Decode(root.Get(filter.FiltersParam), t.filters),
		SortEnabled: to.Sorting.Enabled,
		SearchMode:  SearchMode(to.Search.Mode),
		Dialect:     d,
		Pagination: Pagination{
			Enabled:    to.Pagination.Enabled,
			Page:       ParsePage(root.Get(PageParam).Value()),
			PerPage:    ParsePerPage(root.Get(PerPageParam).Value(), to.Pagination.PerPage, to.Pagination.MaxPerPage),
			MaxPerPage: to.Pagination.MaxPerPage,
		},
	}
	if to.Search.Enabled {
		opts.Search = root.Get(SearchParam).Value()
	}
	opts.Sort = filter.DecodeSort(root.Get(filter.SortParam))
	if len(opts.Sort) == 0 {
		for _, ds := range to.Sorting.DefaultSort {
			if dir, ok := filter.ParseDirection(ds.Direction); ok {
				opts.Sort = append(opts.Sort, filter.SortPair{Key: ds.Field, Dir: dir})
			}
		}
	}
	return opts
}

func (t *Table) List(opts Options) (squirrel.SelectBuilder, error) {
	return ListResources(t.fields, opts, t.provider)
}

func (t *Table) Count(opts Options) (squirrel.SelectBuilder, error) {
	return CountResources(t.fields, opts, t.provider)
}

func (t *Table) Export(opts Options, maxRows uint64) (squirrel.SelectBuilder, error) {
	opts.Pagination.Enabled = false
	return ExportResources(t.fields, opts, t.provider, maxRows)
}

// Tables builds a table for every resource in the registry.
func Tables() (map[string]*Table, error) {
	out := make(map[string]*Table, len(model.Registry))
	for name, res := range model.Registry {
		t, err := TableFromResource(res)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}
