// Package filter holds the four filter kinds a table can declare, the
// predicates they contribute to a query and the codec that carries their
// state through URL parameters.
package filter

import (
	"fmt"
	"maps"
	"math"

	"LiveTable/internal/model"

	"github.com/Masterminds/squirrel"
)

// Filter is one of Boolean, Range, Select or Transformer. The set is closed:
// code that dispatches on a filter switches over exactly these four types.
type Filter interface {
	Key() string
	isFilter()
}

// Condition is the fixed predicate of a Boolean filter.
type Condition struct {
	Field string
	Op    string
	Value any
}

// Boolean is a presence-only toggle: when its key is in the filter state the
// fixed condition is ANDed into the query.
type Boolean struct {
	URLKey    string
	Label     string
	Condition Condition
}

// Range keeps Field between two bounds. CurrentMin and CurrentMax are the
// request values; nil falls back to the declared Min and Max.
type Range struct {
	URLKey     string
	Label      string
	Field      string
	Min        float64
	Max        float64
	Step       float64
	CurrentMin *float64
	CurrentMax *float64
}

// Select keeps rows whose Match column is one of Selected.
type Select struct {
	URLKey   string
	Label    string
	Field    string
	Match    string
	IDType   string
	Selected []any
}

// TransformFunc rewrites a whole query from a transformer payload. It must be
// a pure function of its arguments.
type TransformFunc func(q squirrel.SelectBuilder, data map[string]string) (squirrel.SelectBuilder, error)

// Transformer is the escape hatch for joins, grouping and anything else the
// predicate model cannot express.
type Transformer struct {
	URLKey    string
	Label     string
	Transform TransformFunc
	Data      map[string]string
}

func (f Boolean) Key() string     { return f.URLKey }
func (f Range) Key() string       { return f.URLKey }
func (f Select) Key() string      { return f.URLKey }
func (f Transformer) Key() string { return f.URLKey }

func (Boolean) isFilter()     {}
func (Range) isFilter()       {}
func (Select) isFilter()      {}
func (Transformer) isFilter() {}

// Integral reports whether the range binds integers.
func (f Range) Integral() bool {
	return f.Step == 0 || f.Step == math.Trunc(f.Step)
}

// Bounds returns the effective lower and upper bound.
func (f Range) Bounds() (float64, float64) {
	lo, hi := f.Min, f.Max
	if f.CurrentMin != nil {
		lo = *f.CurrentMin
	}
	if f.CurrentMax != nil {
		hi = *f.CurrentMax
	}
	return lo, hi
}

func (f Range) bind(v float64) any {
	if f.Integral() {
		return int64(math.Round(v))
	}
	return v
}

// Apply runs the transform on q. The payload is copied so a transform cannot
// change the state it was decoded from.
func (f Transformer) Apply(q squirrel.SelectBuilder) (squirrel.SelectBuilder, error) {
	if f.Transform == nil {
		return q, fmt.Errorf("transformer %q has no transform", f.URLKey)
	}
	return f.Transform(q, maps.Clone(f.Data))
}

// Predicate returns the condition a regular filter contributes. Transformers
// have none; they rewrite the query through Apply instead.
func Predicate(f Filter, s *model.Schema) (squirrel.Sqlizer, error) {
	switch f := f.(type) {
	case Boolean:
		col, err := s.ColumnExpr(model.ParseFieldRef(f.Condition.Field))
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.URLKey, err)
		}
		cond, err := buildCondition(col, f.Condition.Op, f.Condition.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.URLKey, err)
		}
		return cond, nil

	case Range:
		col, err := s.ColumnExpr(model.ParseFieldRef(f.Field))
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.URLKey, err)
		}
		lo, hi := f.Bounds()
		return squirrel.Expr(col+" BETWEEN ? AND ?", f.bind(lo), f.bind(hi)), nil

	case Select:
		col, err := s.ColumnExpr(matchRef(f, s))
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.URLKey, err)
		}
		if len(f.Selected) == 0 {
			return nil, nil
		}
		return squirrel.Eq{col: f.Selected}, nil

	case Transformer:
		return nil, fmt.Errorf("filter %s: transformers rewrite the query and have no predicate", f.URLKey)

	default:
		return nil, fmt.Errorf("unsupported filter type %T", f)
	}
}

// matchRef is the column a Select compares against: Match when declared,
// otherwise the related record's key for an association field, otherwise
// Field itself.
func matchRef(f Select, s *model.Schema) model.FieldRef {
	if f.Match != "" {
		return model.ParseFieldRef(f.Match)
	}
	ref := model.ParseFieldRef(f.Field)
	if ref.Assoc == "" {
		return ref
	}
	rel := s.GetAssociation(ref.Assoc)
	if rel == nil {
		return ref
	}
	if rel.Type == "has_one" {
		return model.FieldRef{Assoc: ref.Assoc, Column: "id"}
	}
	return model.FieldRef{Assoc: ref.Assoc, Column: rel.PK}
}

// Associations lists the association names a filter needs joined.
func Associations(f Filter, s *model.Schema) []string {
	var refs []model.FieldRef
	switch f := f.(type) {
	case Boolean:
		refs = append(refs, model.ParseFieldRef(f.Condition.Field))
	case Range:
		refs = append(refs, model.ParseFieldRef(f.Field))
	case Select:
		refs = append(refs, matchRef(f, s))
	}
	var out []string
	for _, r := range refs {
		if r.Assoc != "" {
			out = append(out, r.Assoc)
		}
	}
	return out
}

// State is the decoded filter state of one request, in declaration order.
type State []Filter

func (s State) Get(key string) (Filter, bool) {
	for _, f := range s {
		if f.Key() == key {
			return f, true
		}
	}
	return nil, false
}

// With returns a copy of s with f replacing the filter of the same key, or
// appended when the key is new.
func (s State) With(f Filter) State {
	out := make(State, 0, len(s)+1)
	replaced := false
	for _, cur := range s {
		if cur.Key() == f.Key() {
			out = append(out, f)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, f)
	}
	return out
}

// Without returns a copy of s without key.
func (s State) Without(key string) State {
	out := make(State, 0, len(s))
	for _, cur := range s {
		if cur.Key() != key {
			out = append(out, cur)
		}
	}
	return out
}

// Split separates predicate filters from transformers, keeping the order of
// each group.
func Split(s State) ([]Filter, []Transformer) {
	var regular []Filter
	var transformers []Transformer
	for _, f := range s {
		if t, ok := f.(Transformer); ok {
			transformers = append(transformers, t)
			continue
		}
		regular = append(regular, f)
	}
	return regular, transformers
}
