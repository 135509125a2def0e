package filter

import (
	"encoding/json"
	"strconv"
	"strings"

	"LiveTable/internal/params"

	"github.com/google/uuid"
)

// selectShape recognises one wire shape of a Select payload and returns the
// raw ids it carries. Shapes are tried in order; the first match wins.
type selectShape struct {
	name  string
	match func(n *params.Node) ([]string, bool)
}

var selectShapes = []selectShape{
	// filters[k][ids][]=1&filters[k][ids][]=2, also filters[k][ids]=1,2
	{name: "ids", match: func(n *params.Node) ([]string, bool) {
		if ids := n.Get("ids"); ids != nil {
			return flattenIDs(ids), true
		}
		return nil, false
	}},
	// filters[k][id]=1, written by older clients
	{name: "legacy_id", match: func(n *params.Node) ([]string, bool) {
		if id := n.Get("id"); id != nil {
			return flattenIDs(id), true
		}
		return nil, false
	}},
	// filters[k][]=1&filters[k][]=[2]
	{name: "list", match: func(n *params.Node) ([]string, bool) {
		if n.Kind() == params.List {
			return flattenIDs(n), true
		}
		return nil, false
	}},
	// filters[k]=1, filters[k]=[1,2] or filters[k]=1,2
	{name: "scalar", match: func(n *params.Node) ([]string, bool) {
		if n.Kind() == params.Scalar {
			return flattenIDs(n), true
		}
		return nil, false
	}},
}

func flattenIDs(n *params.Node) []string {
	switch n.Kind() {
	case params.Scalar:
		return splitScalar(n.Value())
	case params.List:
		var out []string
		for _, item := range n.Items() {
			out = append(out, flattenIDs(item)...)
		}
		return out
	}
	return nil
}

// splitScalar unwraps a JSON array ("[3]", "[\"a\",\"b\"]") or splits a comma
// separated value.
func splitScalar(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		var items []any
		if err := json.Unmarshal([]byte(v), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, it := range items {
				switch x := it.(type) {
				case string:
					out = append(out, x)
				case float64:
					out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
				}
			}
			return out
		}
		v = strings.Trim(v, "[]")
	}
	return strings.Split(v, ",")
}

// parseIDs types raw ids per idType, dropping unparsable and repeated ones.
func parseIDs(raw []string, idType string) []any {
	var out []any
	seen := map[string]struct{}{}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		var (
			id  any
			key string
		)
		switch idType {
		case "string":
			id, key = r, r
		case "uuid":
			u, err := uuid.Parse(r)
			if err != nil {
				continue
			}
			id, key = u.String(), u.String()
		default:
			n, err := strconv.ParseInt(r, 10, 64)
			if err != nil {
				continue
			}
			id, key = n, strconv.FormatInt(n, 10)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}
	return out
}

func decodeSelectIDs(n *params.Node, idType string) []any {
	for _, shape := range selectShapes {
		if raw, ok := shape.match(n); ok {
			return parseIDs(raw, idType)
		}
	}
	return nil
}
