package model

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\{([^}]+)\}`)
	identifierRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ValidIdentifier reports whether name can be spliced into SQL as a table,
// column or alias name.
func ValidIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

func checkIdentifier(what, name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, what, name)
	}
	return nil
}

// QuoteIdentifier wraps name in double quotes for use as a column alias.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// extractPathsFromExpr returns the distinct {path} placeholders of expr in
// order of first appearance.
func extractPathsFromExpr(expr string) []string {
	if expr == "" {
		return nil
	}
	matches := placeholderRe.FindAllStringSubmatch(expr, -1)
	set := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		p := strings.TrimSpace(m[1])
		if p == "" {
			continue
		}
		if _, ok := set[p]; ok {
			continue
		}
		set[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ExprAssociations lists the association names referenced by placeholders
// of a computed expression ({assoc.column}).
func ExprAssociations(expr string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range extractPathsFromExpr(expr) {
		ref := ParseFieldRef(p)
		if ref.Assoc == "" {
			continue
		}
		if _, ok := seen[ref.Assoc]; ok {
			continue
		}
		seen[ref.Assoc] = struct{}{}
		out = append(out, ref.Assoc)
	}
	return out
}

// applyAliasPlaceholders replaces every {column} with main.column and every
// {assoc.column} with <alias>.column.
func (s *Schema) applyAliasPlaceholders(expr string) (string, error) {
	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(expr, func(match string) string {
		inner := strings.TrimSpace(match[1 : len(match)-1])
		col, err := s.ColumnExpr(ParseFieldRef(inner))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return col
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
