package model

import (
	"fmt"
	"sort"
	"strings"
)

// LinkResources fills association defaults, validates every resource in the
// registry and freezes its alias map.
func LinkResources() error {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := Registry[name].Link(); err != nil {
			return err
		}
	}
	return nil
}

// Link prepares a schema for use: association defaults, identifier checks
// and the alias map.
func (s *Schema) Link() error {
	if err := checkIdentifier("table", s.Table); err != nil {
		return fmt.Errorf("resource %s: %w", s.Name, err)
	}
	if err := checkIdentifier("primary_key", s.GetPrimaryKey()); err != nil {
		return fmt.Errorf("resource %s: %w", s.Name, err)
	}
	for relName, rel := range s.Associations {
		if rel == nil {
			return fmt.Errorf("resource %s: association %q is empty", s.Name, relName)
		}
		rel.Name = relName
		if err := checkIdentifier("association", relName); err != nil {
			return fmt.Errorf("resource %s: %w", s.Name, err)
		}
		switch rel.Type {
		case "", "belongs_to":
			rel.Type = "belongs_to"
			if rel.FK == "" {
				rel.FK = relName + "_id"
			}
			if rel.PK == "" {
				rel.PK = "id"
			}
		case "has_one":
			if rel.FK == "" {
				return fmt.Errorf("resource %s: has_one association %q requires fk", s.Name, relName)
			}
			if rel.PK == "" {
				rel.PK = s.GetPrimaryKey()
			}
		default:
			return fmt.Errorf("association '%s.%s' must have valid type (belongs_to, has_one), got '%s'", s.Name, relName, rel.Type)
		}
		for what, ident := range map[string]string{"table": rel.Table, "fk": rel.FK, "pk": rel.PK} {
			if err := checkIdentifier(what, ident); err != nil {
				return fmt.Errorf("resource %s association %s: %w", s.Name, relName, err)
			}
		}
	}
	s.aliases = BuildAliasMap(s)
	return nil
}

// Link links the schema and validates the field and filter declarations
// against it, so broken definitions fail at startup.
func (r *Resource) Link() error {
	if err := r.Schema.Link(); err != nil {
		return err
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("resource %s: no fields declared", r.Name)
	}
	if err := r.ValidateFields(r.Fields); err != nil {
		return err
	}

	keys := make(map[string]struct{}, len(r.Filters))
	for i, f := range r.Filters {
		if strings.TrimSpace(f.Key) == "" {
			return fmt.Errorf("resource %s: filter #%d has no key", r.Name, i)
		}
		if _, dup := keys[f.Key]; dup {
			return fmt.Errorf("resource %s: duplicate filter key %q", r.Name, f.Key)
		}
		keys[f.Key] = struct{}{}

		refs := []string{f.Field, f.Match}
		if f.Condition != nil {
			refs = append(refs, f.Condition.Field)
		}
		for _, ref := range refs {
			if ref == "" {
				continue
			}
			if _, err := r.ColumnExpr(ParseFieldRef(ref)); err != nil {
				return fmt.Errorf("resource %s filter %s: %w", r.Name, f.Key, err)
			}
		}
	}
	return nil
}
