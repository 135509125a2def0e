package model

import (
	"fmt"
	"sort"
)

// BuildAliasMap assigns t0, t1, ... to the schema's associations in sorted
// name order, so a given association always gets the same alias whichever
// subset of joins a request needs.
func BuildAliasMap(s *Schema) *AliasMap {
	names := make([]string, 0, len(s.Associations))
	for name := range s.Associations {
		names = append(names, name)
	}
	sort.Strings(names)

	am := &AliasMap{
		PathToAlias: make(map[string]string, len(names)),
		AliasToPath: make(map[string]string, len(names)),
	}
	for i, name := range names {
		alias := fmt.Sprintf("t%d", i)
		am.PathToAlias[name] = alias
		am.AliasToPath[alias] = name
	}
	return am
}

// AliasMap returns the alias map built by Link, or a freshly built one for
// schemas declared in code.
func (s *Schema) AliasMap() *AliasMap {
	if s.aliases != nil {
		return s.aliases
	}
	return BuildAliasMap(s)
}
