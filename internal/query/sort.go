package query

import (
	"strings"

	"LiveTable/internal/filter"
	"LiveTable/internal/logger"
	"LiveTable/internal/model"

	"github.com/Masterminds/squirrel"
)

// ApplySort adds one ORDER BY term per usable pair, in order. Pairs naming an
// unknown or non-sortable field, or carrying an invalid direction, are
// skipped: they come from user input.
func ApplySort(q squirrel.SelectBuilder, spec filter.SortSpec, fields []model.FieldDescriptor, s *model.Schema) (squirrel.SelectBuilder, error) {
	for _, pair := range spec {
		f, ok := model.FindField(fields, pair.Key)
		if !ok || !f.Sortable {
			logger.Debug("sort_key_dropped", map[string]any{
				"resource": s.Name,
				"key":      pair.Key,
			})
			continue
		}
		dir, ok := filter.ParseDirection(string(pair.Dir))
		if !ok {
			logger.Debug("sort_direction_dropped", map[string]any{
				"resource":  s.Name,
				"key":       pair.Key,
				"direction": pair.Dir,
			})
			continue
		}
		expr, err := s.FieldExpr(f)
		if err != nil {
			return q, err
		}
		q = q.OrderBy(expr + " " + strings.ToUpper(string(dir)))
	}
	return q, nil
}

// sortJoins lists associations needed by the usable pairs of spec.
func sortJoins(spec filter.SortSpec, fields []model.FieldDescriptor) []string {
	var out []string
	for _, pair := range spec {
		if f, ok := model.FindField(fields, pair.Key); ok && f.Sortable {
			out = append(out, model.FieldAssociations(f)...)
		}
	}
	return out
}
