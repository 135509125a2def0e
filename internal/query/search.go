package query

import (
	"fmt"
	"strings"

	"LiveTable/internal/model"

	"github.com/Masterminds/squirrel"
)

// SearchMode is the case-sensitivity strategy of the search condition.
type SearchMode string

const (
	SearchAuto  SearchMode = "auto"  // ilike where the store has it, lower otherwise
	SearchILike SearchMode = "ilike" // native case-insensitive match
	SearchLike  SearchMode = "like"  // case-sensitive
	SearchLower SearchMode = "lower" // LOWER() on both sides
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// resolve picks the concrete mode for auto.
func (m SearchMode) resolve(d Dialect) SearchMode {
	switch m {
	case SearchILike:
		if !d.SupportsILike() {
			return SearchLower
		}
		return m
	case SearchLike, SearchLower:
		return m
	}
	if d.SupportsILike() {
		return SearchILike
	}
	return SearchLower
}

// BuildSearch ORs a substring match of term over every searchable field.
// A blank term, or a table without searchable fields, yields nil.
func BuildSearch(term string, fields []model.FieldDescriptor, s *model.Schema, mode SearchMode, d Dialect) (squirrel.Sqlizer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	mode = mode.resolve(d)

	var parts squirrel.Or
	for _, f := range fields {
		if !f.Searchable {
			continue
		}
		expr, err := s.FieldExpr(f)
		if err != nil {
			return nil, err
		}
		if !f.IsText() {
			expr = fmt.Sprintf("CAST(%s AS TEXT)", expr)
		}
		var sql string
		switch mode {
		case SearchILike:
			sql = expr + ` ILIKE ? ESCAPE '\'`
		case SearchLike:
			sql = expr + ` LIKE ? ESCAPE '\'`
		default:
			sql = `LOWER(` + expr + `) LIKE LOWER(?) ESCAPE '\'`
		}
		parts = append(parts, squirrel.Expr(sql, pattern))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return parts, nil
}
