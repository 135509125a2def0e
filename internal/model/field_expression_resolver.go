package model

import (
	"fmt"
	"strings"
)

// FieldRef points at a column of the root table (Assoc empty) or of an
// association ("category.name").
type FieldRef struct {
	Assoc  string
	Column string
}

func ParseFieldRef(s string) FieldRef {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return FieldRef{Assoc: s[:i], Column: s[i+1:]}
	}
	return FieldRef{Column: s}
}

func (r FieldRef) String() string {
	if r.Assoc == "" {
		return r.Column
	}
	return r.Assoc + "." + r.Column
}

// ColumnExpr resolves a reference to "<alias>.<column>".
func (s *Schema) ColumnExpr(ref FieldRef) (string, error) {
	if err := checkIdentifier("column", ref.Column); err != nil {
		return "", err
	}
	if ref.Assoc == "" {
		return RootAlias + "." + ref.Column, nil
	}
	alias, ok := s.AliasMap().PathToAlias[ref.Assoc]
	if !ok {
		return "", fmt.Errorf("%w %q in %s (resource %s)", ErrUnknownAssociation, ref.Assoc, ref, s.Name)
	}
	return alias + "." + ref.Column, nil
}

// FieldExpr resolves a field to the SQL expression that produces its value:
// the expanded computed expression in parentheses, the association column,
// or the root column.
func (s *Schema) FieldExpr(f FieldDescriptor) (string, error) {
	if strings.TrimSpace(f.Computed) != "" {
		expr, err := s.applyAliasPlaceholders(f.Computed)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Key, err)
		}
		return "(" + expr + ")", nil
	}
	expr, err := s.ColumnExpr(FieldRef{Assoc: f.Assoc, Column: f.SourceColumn()})
	if err != nil {
		return "", fmt.Errorf("field %q: %w", f.Key, err)
	}
	return expr, nil
}

// FieldAssociations lists the associations a field needs joined.
func FieldAssociations(f FieldDescriptor) []string {
	if strings.TrimSpace(f.Computed) != "" {
		return ExprAssociations(f.Computed)
	}
	if f.Assoc != "" {
		return []string{f.Assoc}
	}
	return nil
}

// FindField returns the descriptor with the given key.
func FindField(fields []FieldDescriptor, key string) (FieldDescriptor, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// ValidateFields checks that every field resolves against the schema.
func (s *Schema) ValidateFields(fields []FieldDescriptor) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Key) == "" {
			return fmt.Errorf("resource %s: field without key", s.Name)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("resource %s: duplicate field %q", s.Name, f.Key)
		}
		seen[f.Key] = struct{}{}
		if _, err := s.FieldExpr(f); err != nil {
			return fmt.Errorf("resource %s: %w", s.Name, err)
		}
	}
	return nil
}
