package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTableOptionsDefaults(t *testing.T) {
	opts, err := ResolveTableOptions(nil, nil)
	require.NoError(t, err)

	want := TableOptions{
		Pagination: PaginationOptions{Enabled: true, PerPage: 10, MaxPerPage: 50, Mode: "buttons"},
		Sorting: SortingOptions{
			Enabled:     true,
			DefaultSort: []SortDefault{{Field: "id", Direction: "asc"}},
		},
		Search:  SearchOptions{Enabled: true, Mode: "auto", Placeholder: "Search..."},
		Exports: ExportOptions{Enabled: true, MaxRows: 10000},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveTableOptionsLayering(t *testing.T) {
	app := map[string]any{
		"pagination": map[string]any{"per_page": 25, "max_per_page": 100},
		"search":     map[string]any{"mode": "lower"},
	}
	resource := map[string]any{
		"pagination": map[string]any{"per_page": 5},
		"sorting": map[string]any{
			"default_sort": []any{map[string]any{"field": "name", "direction": "desc"}},
		},
	}

	opts, err := ResolveTableOptions(app, resource)
	require.NoError(t, err)

	assert.Equal(t, 5, opts.Pagination.PerPage, "resource layer wins")
	assert.Equal(t, 100, opts.Pagination.MaxPerPage, "app layer survives where resource is silent")
	assert.True(t, opts.Pagination.Enabled, "default survives untouched keys")
	assert.Equal(t, "lower", opts.Search.Mode)
	assert.Equal(t, []SortDefault{{Field: "name", Direction: "desc"}}, opts.Sorting.DefaultSort)
}

func TestResolveTableOptionsResourceCanDisable(t *testing.T) {
	app := map[string]any{"pagination": map[string]any{"enabled": true}}
	resource := map[string]any{"pagination": map[string]any{"enabled": false}}

	opts, err := ResolveTableOptions(app, resource)
	require.NoError(t, err)
	assert.False(t, opts.Pagination.Enabled)
}

func TestResolveTableOptionsRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]any{
		"unknown key":    {"pagination": map[string]any{"per_pages": 3}},
		"zero per page":  {"pagination": map[string]any{"per_page": 0}},
		"max below page": {"pagination": map[string]any{"per_page": 20, "max_per_page": 10}},
		"bad mode":       {"search": map[string]any{"mode": "fuzzy"}},
	}
	for name, resource := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveTableOptions(nil, resource)
			assert.Error(t, err)
		})
	}
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1, "y": 2}}
	src := map[string]any{"a": map[string]any{"y": 3}}

	out := DeepMerge(dst, src)

	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 3}}, out)
	assert.Equal(t, map[string]any{"a": map[string]any{"x": 1, "y": 2}}, dst)
}

func TestLoadTableOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table_options.yml")
	require.NoError(t, os.WriteFile(path, []byte("pagination:\n  per_page: 20\n"), 0o644))

	layer, err := LoadTableOptionsFile(path)
	require.NoError(t, err)

	opts, err := ResolveTableOptions(layer, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, opts.Pagination.PerPage)

	empty, err := LoadTableOptionsFile("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
