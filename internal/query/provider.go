package query

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"LiveTable/internal/model"

	"github.com/Masterminds/squirrel"
)

var ErrUnknownCustomQuery = errors.New("unknown custom query")

// CustomQueryFunc builds the base rows of a resource from bound arguments.
// Its columns are visible to the rest of the composition under the root
// alias, so fields refer to them as plain columns.
type CustomQueryFunc func(args ...any) (squirrel.SelectBuilder, error)

// Provider is the source of the base query: FromSchema or FromQuery.
type Provider interface {
	schema() *model.Schema
	base() (squirrel.SelectBuilder, error)
}

// FromSchema selects from the schema's root table.
type FromSchema struct {
	Schema *model.Schema
}

// FromQuery selects from the result of a custom query function.
type FromQuery struct {
	Schema *model.Schema
	Fn     CustomQueryFunc
	Args   []any
}

func (p FromSchema) schema() *model.Schema { return p.Schema }
func (p FromQuery) schema() *model.Schema  { return p.Schema }

func (p FromSchema) base() (squirrel.SelectBuilder, error) {
	return squirrel.Select().From(fmt.Sprintf("%s AS %s", p.Schema.Table, model.RootAlias)), nil
}

func (p FromQuery) base() (squirrel.SelectBuilder, error) {
	if p.Fn == nil {
		return squirrel.SelectBuilder{}, fmt.Errorf("resource %s: custom query function is nil", p.Schema.Name)
	}
	inner, err := p.Fn(p.Args...)
	if err != nil {
		return squirrel.SelectBuilder{}, fmt.Errorf("resource %s: custom query: %w", p.Schema.Name, err)
	}
	return squirrel.Select().FromSelect(inner, model.RootAlias), nil
}

var (
	customQueriesMu sync.RWMutex
	customQueries   = map[string]CustomQueryFunc{}
)

// RegisterCustomQuery makes fn available to resource files as
// `query: {name: <name>}`.
func RegisterCustomQuery(name string, fn CustomQueryFunc) {
	customQueriesMu.Lock()
	defer customQueriesMu.Unlock()
	customQueries[name] = fn
}

func LookupCustomQuery(name string) (CustomQueryFunc, error) {
	customQueriesMu.RLock()
	defer customQueriesMu.RUnlock()
	fn, ok := customQueries[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCustomQuery, name)
	}
	return fn, nil
}

func CustomQueryNames() []string {
	customQueriesMu.RLock()
	defer customQueriesMu.RUnlock()
	names := make([]string, 0, len(customQueries))
	for name := range customQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
