package filter

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"LiveTable/internal/logger"
	"LiveTable/internal/params"
)

// FiltersParam is the top-level query parameter holding filter state.
const FiltersParam = "filters"

// Encode renders state as the content of the filters[...] parameter.
// Transformers with an empty payload are left out.
func Encode(state State) *params.Node {
	out := params.NewMap()
	for _, f := range state {
		switch f := f.(type) {
		case Boolean:
			out.Set(f.URLKey, params.NewScalar(f.URLKey))
		case Range:
			lo, hi := f.Bounds()
			out.Set(f.URLKey, params.NewMap().
				Set("min", params.NewScalar(f.formatBound(lo))).
				Set("max", params.NewScalar(f.formatBound(hi))))
		case Select:
			if len(f.Selected) == 0 {
				continue
			}
			ids := params.NewList()
			for _, id := range f.Selected {
				ids.Append(params.NewScalar(fmt.Sprint(id)))
			}
			out.Set(f.URLKey, params.NewMap().Set("ids", ids))
		case Transformer:
			if len(f.Data) == 0 {
				continue
			}
			payload := params.NewMap()
			for _, k := range sortedKeys(f.Data) {
				payload.Set(k, params.NewScalar(f.Data[k]))
			}
			out.Set(f.URLKey, payload)
		}
	}
	return out
}

// Decode matches the filters[...] node against the declared filters and
// returns the active instances in declaration order. Filters whose payload
// carries nothing usable are left out.
func Decode(n *params.Node, declared []Filter) State {
	var state State
	for _, decl := range declared {
		raw := n.Get(decl.Key())
		if raw.IsBlank() {
			continue
		}
		if f, ok := decodeOne(decl, raw); ok {
			state = append(state, f)
		} else {
			logger.Debug("filter_param_ignored", map[string]any{
				"filter": decl.Key(),
			})
		}
	}
	return state
}

func decodeOne(decl Filter, raw *params.Node) (Filter, bool) {
	switch d := decl.(type) {
	case Boolean:
		return d, true

	case Range:
		if raw.Kind() != params.Map {
			return nil, false
		}
		minNode, maxNode := raw.Get("min"), raw.Get("max")
		if minNode.IsBlank() && maxNode.IsBlank() {
			return nil, false
		}
		lo := d.parseBound(minNode.Value(), d.Min)
		hi := d.parseBound(maxNode.Value(), d.Max)
		if lo > hi {
			lo, hi = hi, lo
		}
		d.CurrentMin, d.CurrentMax = &lo, &hi
		return d, true

	case Select:
		ids := decodeSelectIDs(raw, d.IDType)
		if len(ids) == 0 {
			return nil, false
		}
		d.Selected = ids
		return d, true

	case Transformer:
		if raw.Kind() != params.Map {
			return nil, false
		}
		data := make(map[string]string, raw.Len())
		for _, k := range raw.Keys() {
			if v := raw.Get(k); v.Kind() == params.Scalar {
				data[k] = v.Value()
			}
		}
		if len(data) == 0 {
			return nil, false
		}
		d.Data = data
		return d, true
	}
	return nil, false
}

// parseBound parses one range bound. Integral ranges only accept integers.
// Unparsable input yields def, values outside [Min, Max] are clamped.
func (f Range) parseBound(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	var v float64
	if f.Integral() {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return def
		}
		v = float64(n)
	} else {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return def
		}
		v = x
	}
	if v < f.Min {
		return f.Min
	}
	if v > f.Max {
		return f.Max
	}
	return v
}

func (f Range) formatBound(v float64) string {
	if f.Integral() {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
