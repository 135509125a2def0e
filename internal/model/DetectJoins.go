package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
)

// DetectJoins turns the association names referenced by a request into join
// specs. Names are deduplicated, so an association used by several fields or
// filters is joined once; the result is ordered by alias.
func DetectJoins(s *Schema, names []string) ([]*JoinSpec, error) {
	am := s.AliasMap()
	joinMap := map[string]*JoinSpec{}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		alias, ok := am.PathToAlias[name]
		if !ok {
			return nil, fmt.Errorf("%w %q (resource %s)", ErrUnknownAssociation, name, s.Name)
		}
		if _, exists := joinMap[alias]; exists {
			continue
		}
		rel := s.Associations[name]

		var onClause string
		switch rel.Type {
		case "", "belongs_to":
			// main.FK = alias.PK
			onClause = fmt.Sprintf("%s.%s = %s.%s", RootAlias, rel.FK, alias, rel.PK)
		case "has_one":
			// alias.FK = main.PK
			onClause = fmt.Sprintf("%s.%s = %s.%s", alias, rel.FK, RootAlias, rel.PK)
		default:
			return nil, fmt.Errorf("association %q: unsupported type %q", name, rel.Type)
		}

		joinMap[alias] = &JoinSpec{
			Table: rel.Table,
			Alias: alias,
			On:    onClause,
			Where: replaceColumnsWithAlias(rel.Where, alias),
		}
	}

	joins := make([]*JoinSpec, 0, len(joinMap))
	for _, j := range joinMap {
		joins = append(joins, j)
	}
	sort.Slice(joins, func(i, k int) bool { return aliasLess(joins[i].Alias, joins[k].Alias) })
	return joins, nil
}

// ApplyJoins adds one LEFT JOIN per spec. A LEFT JOIN keeps root rows whose
// optional relation is absent.
func ApplyJoins(sb squirrel.SelectBuilder, joins []*JoinSpec) squirrel.SelectBuilder {
	for _, join := range joins {
		onClause := join.On
		if join.Where != "" {
			onClause = fmt.Sprintf("(%s) AND (%s)", join.On, join.Where)
		}
		sb = sb.LeftJoin(fmt.Sprintf("%s AS %s ON %s", join.Table, join.Alias, onClause))
	}
	return sb
}

// replaceColumnsWithAlias rewrites {column} placeholders of an association
// condition to <alias>.column.
func replaceColumnsWithAlias(where string, alias string) string {
	if where == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(where, func(match string) string {
		return alias + "." + strings.TrimSpace(match[1:len(match)-1])
	})
}

// aliasLess orders t2 before t10.
func aliasLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
