package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TableOptions is the resolved pagination/sort/search/export configuration of
// one table for one request.
type TableOptions struct {
	Pagination PaginationOptions `yaml:"pagination" json:"pagination"`
	Sorting    SortingOptions    `yaml:"sorting" json:"sorting"`
	Search     SearchOptions     `yaml:"search" json:"search"`
	Exports    ExportOptions     `yaml:"exports" json:"exports"`
}

type PaginationOptions struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	PerPage    int    `yaml:"per_page" json:"per_page"`
	MaxPerPage int    `yaml:"max_per_page" json:"max_per_page"`
	Mode       string `yaml:"mode" json:"mode"` // buttons | infinite
}

type SortingOptions struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	DefaultSort []SortDefault `yaml:"default_sort" json:"default_sort"`
}

type SortDefault struct {
	Field     string `yaml:"field" json:"field"`
	Direction string `yaml:"direction" json:"direction"`
}

type SearchOptions struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Mode        string `yaml:"mode" json:"mode"` // auto | ilike | like | lower
	Placeholder string `yaml:"placeholder" json:"placeholder"`
}

type ExportOptions struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	MaxRows int  `yaml:"max_rows" json:"max_rows"`
}

// DefaultTableOptions returns the built-in layer as a fresh map on every call.
func DefaultTableOptions() map[string]any {
	return map[string]any{
		"pagination": map[string]any{
			"enabled":      true,
			"per_page":     10,
			"max_per_page": 50,
			"mode":         "buttons",
		},
		"sorting": map[string]any{
			"enabled": true,
			"default_sort": []any{
				map[string]any{"field": "id", "direction": "asc"},
			},
		},
		"search": map[string]any{
			"enabled":     true,
			"mode":        "auto",
			"placeholder": "Search...",
		},
		"exports": map[string]any{
			"enabled":  true,
			"max_rows": 10000,
		},
	}
}

// ResolveTableOptions merges built-in defaults, application overrides and
// per-resource overrides, later layers winning key by key.
func ResolveTableOptions(app, resource map[string]any) (TableOptions, error) {
	merged := DeepMerge(DefaultTableOptions(), app)
	merged = DeepMerge(merged, resource)

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return TableOptions{}, fmt.Errorf("marshal table options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var opts TableOptions
	if err := dec.Decode(&opts); err != nil {
		return TableOptions{}, fmt.Errorf("decode table options: %w", err)
	}
	if err := opts.validate(); err != nil {
		return TableOptions{}, err
	}
	return opts, nil
}

func (o TableOptions) validate() error {
	p := o.Pagination
	if p.PerPage < 1 {
		return fmt.Errorf("table options: pagination.per_page must be >= 1, got %d", p.PerPage)
	}
	if p.MaxPerPage < p.PerPage {
		return fmt.Errorf("table options: pagination.max_per_page (%d) must be >= per_page (%d)", p.MaxPerPage, p.PerPage)
	}
	switch p.Mode {
	case "buttons", "infinite":
	default:
		return fmt.Errorf("table options: unknown pagination.mode %q", p.Mode)
	}
	switch o.Search.Mode {
	case "auto", "ilike", "like", "lower":
	default:
		return fmt.Errorf("table options: unknown search.mode %q", o.Search.Mode)
	}
	if o.Exports.MaxRows < 0 {
		return fmt.Errorf("table options: exports.max_rows must be >= 0, got %d", o.Exports.MaxRows)
	}
	return nil
}

// DeepMerge returns a new map with src merged over dst. Nested maps are merged
// recursively; any other value in src replaces the one in dst. Neither input
// is modified.
func DeepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcIsMap := asMap(v)
		dstMap, dstIsMap := asMap(out[k])
		if srcIsMap && dstIsMap {
			out[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// LoadTableOptionsFile reads the application-wide override layer. An empty
// path yields an empty layer.
func LoadTableOptionsFile(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table options %s: %w", path, err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse table options %s: %w", path, err)
	}
	return out, nil
}
