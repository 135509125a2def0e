package filter

import (
	"strings"

	"LiveTable/internal/logger"
	"LiveTable/internal/params"
)

// SortParam is the top-level query parameter holding the sort state.
const SortParam = "sort_params"

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return "", false
}

type SortPair struct {
	Key string    `json:"key"`
	Dir Direction `json:"dir"`
}

// SortSpec is an ordered multi-key sort; the first pair is the primary key.
type SortSpec []SortPair

func (s SortSpec) Direction(key string) (Direction, bool) {
	for _, p := range s {
		if p.Key == key {
			return p.Dir, true
		}
	}
	return "", false
}

// MergeSort folds one incoming pair into existing. Without accumulate the
// incoming pair replaces everything. With accumulate a known key keeps its
// position and takes the new direction, a new key goes last.
func MergeSort(existing SortSpec, incoming SortPair, accumulate bool) SortSpec {
	if !accumulate {
		return SortSpec{incoming}
	}
	out := make(SortSpec, 0, len(existing)+1)
	found := false
	for _, p := range existing {
		if p.Key == incoming.Key {
			p.Dir = incoming.Dir
			found = true
		}
		out = append(out, p)
	}
	if !found {
		out = append(out, incoming)
	}
	return out
}

// NextDirection is the direction a click on key's header switches to:
// asc for an unsorted or descending column, desc for an ascending one.
func NextDirection(spec SortSpec, key string) Direction {
	if dir, ok := spec.Direction(key); ok && dir == Asc {
		return Desc
	}
	return Asc
}

// Toggle merges a header click on key into spec.
func Toggle(spec SortSpec, key string, accumulate bool) SortSpec {
	return MergeSort(spec, SortPair{Key: key, Dir: NextDirection(spec, key)}, accumulate)
}

// EncodeSort renders spec as the content of sort_params[...], in order.
func EncodeSort(spec SortSpec) *params.Node {
	out := params.NewMap()
	for _, p := range spec {
		out.Set(p.Key, params.NewScalar(string(p.Dir)))
	}
	return out
}

// DecodeSort reads sort_params[field]=dir pairs in order. Pairs with an
// invalid direction are dropped; unknown keys are left to the sort compiler.
func DecodeSort(n *params.Node) SortSpec {
	var spec SortSpec
	for _, key := range n.Keys() {
		dir, ok := ParseDirection(n.Get(key).Value())
		if !ok || strings.TrimSpace(key) == "" {
			logger.Debug("sort_param_ignored", map[string]any{
				"key":       key,
				"direction": n.Get(key).Value(),
			})
			continue
		}
		spec = append(spec, SortPair{Key: key, Dir: dir})
	}
	return spec
}
