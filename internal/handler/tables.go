package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"LiveTable/internal/config"
	"LiveTable/internal/filter"
	"LiveTable/internal/logger"
	"LiveTable/internal/params"
	"LiveTable/internal/query"
	"LiveTable/internal/resolver"
)

const (
	ToggleParam = "toggle"
	ShiftParam  = "shift"
	DirParam    = "dir"
)

// Tables serves the list, count, export and sort endpoints of every table.
type Tables struct {
	Tables  map[string]*query.Table
	App     map[string]any
	Dialect query.Dialect
	Exec    resolver.Executor
}

type listResponse struct {
	Rows        []resolver.Row  `json:"rows"`
	Page        int             `json:"page"`
	PerPage     int             `json:"per_page"`
	HasNextPage bool            `json:"has_next_page"`
	Sort        filter.SortSpec `json:"sort"`
	Query       string          `json:"query"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type exportResponse struct {
	Rows []resolver.Row `json:"rows"`
}

type sortResponse struct {
	Sort  filter.SortSpec `json:"sort"`
	Query string          `json:"query"`
}

// request is what every endpoint needs after the table lookup.
type request struct {
	table    *query.Table
	root     *params.Node
	tableOpt config.TableOptions
	opts     query.Options
}

func (h *Tables) prepare(w http.ResponseWriter, r *http.Request, endpoint string) (*request, bool) {
	name := r.PathValue("resource")
	table, ok := h.Tables[name]
	if !ok {
		logger.Warn("unknown_resource", map[string]any{
			"endpoint": endpoint,
			"resource": name,
		})
		http.Error(w, "Unknown resource: "+name, http.StatusNotFound)
		return nil, false
	}

	root, err := params.ParseQuery(r.URL.RawQuery)
	if err != nil {
		// malformed pairs are skipped, the rest of the query still applies
		logger.Debug("query_param_ignored", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
	}

	to, err := table.ResolveOptions(h.App)
	if err != nil {
		logger.Error("table_options_invalid", map[string]any{
			"endpoint": endpoint,
			"resource": name,
			"error":    err.Error(),
		})
		http.Error(w, "Invalid table options: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	req := &request{
		table:    table,
		root:     root,
		tableOpt: to,
		opts:     table.OptionsFromRequest(root, to, h.Dialect),
	}
	logger.Info("request", map[string]any{
		"endpoint": endpoint,
		"resource": name,
		"query":    r.URL.RawQuery,
	})
	return req, true
}

// List serves GET /api/tables/{resource}.
func (h *Tables) List(w http.ResponseWriter, r *http.Request) {
	const endpoint = "list"
	req, ok := h.prepare(w, r, endpoint)
	if !ok {
		return
	}
	q, err := req.table.List(req.opts)
	if err != nil {
		compositionFailed(w, endpoint, err)
		return
	}
	page, err := resolver.FetchPage(r.Context(), h.Exec, q, req.opts.Pagination)
	if err != nil {
		resolverFailed(w, endpoint, err)
		return
	}
	writeJSON(w, endpoint, listResponse{
		Rows:        page.Rows,
		Page:        page.Page,
		PerPage:     page.PerPage,
		HasNextPage: page.HasNextPage,
		Sort:        nonNilSort(req.opts.Sort),
		Query:       CanonicalQuery(req.opts),
	})
}

// Count serves GET /api/tables/{resource}/count.
func (h *Tables) Count(w http.ResponseWriter, r *http.Request) {
	const endpoint = "count"
	req, ok := h.prepare(w, r, endpoint)
	if !ok {
		return
	}
	q, err := req.table.Count(req.opts)
	if err != nil {
		compositionFailed(w, endpoint, err)
		return
	}
	n, err := resolver.FetchCount(r.Context(), h.Exec, q)
	if err != nil {
		resolverFailed(w, endpoint, err)
		return
	}
	writeJSON(w, endpoint, countResponse{Count: n})
}

// Export serves GET /api/tables/{resource}/export.
func (h *Tables) Export(w http.ResponseWriter, r *http.Request) {
	const endpoint = "export"
	req, ok := h.prepare(w, r, endpoint)
	if !ok {
		return
	}
	if !req.tableOpt.Exports.Enabled {
		logger.Warn("export_disabled", map[string]any{"resource": req.table.Name})
		http.Error(w, "Export disabled for "+req.table.Name, http.StatusForbidden)
		return
	}
	var maxRows uint64
	if req.tableOpt.Exports.MaxRows > 0 {
		maxRows = uint64(req.tableOpt.Exports.MaxRows)
	}
	q, err := req.table.Export(req.opts, maxRows)
	if err != nil {
		compositionFailed(w, endpoint, err)
		return
	}
	rows, err := resolver.FetchAll(r.Context(), h.Exec, q)
	if err != nil {
		resolverFailed(w, endpoint, err)
		return
	}
	writeJSON(w, endpoint, exportResponse{Rows: rows})
}

// Sort serves GET /api/tables/{resource}/sort?toggle=<key>&shift=<bool>&dir=<asc|desc>.
// It answers with the query string a client navigates to after clicking a
// column header; the page is reset. Without dir the column's direction is
// toggled. A shift-click extends the sort currently shown, which is the
// default sort when the request carries none.
func (h *Tables) Sort(w http.ResponseWriter, r *http.Request) {
	const endpoint = "sort"
	req, ok := h.prepare(w, r, endpoint)
	if !ok {
		return
	}
	key := req.root.Get(ToggleParam).Value()
	if key == "" {
		http.Error(w, "toggle parameter is required", http.StatusBadRequest)
		return
	}
	if !sortable(req.table, key) {
		logger.Warn("sort_key_rejected", map[string]any{
			"resource": req.table.Name,
			"key":      key,
		})
		http.Error(w, "Field is not sortable: "+key, http.StatusBadRequest)
		return
	}
	shift, _ := strconv.ParseBool(req.root.Get(ShiftParam).Value())

	opts := req.opts
	if raw := req.root.Get(DirParam).Value(); raw != "" {
		dir, ok := filter.ParseDirection(raw)
		if !ok {
			http.Error(w, "Invalid sort direction: "+raw, http.StatusBadRequest)
			return
		}
		opts.Sort = filter.MergeSort(req.opts.Sort, filter.SortPair{Key: key, Dir: dir}, shift)
	} else {
		opts.Sort = filter.Toggle(req.opts.Sort, key, shift)
	}
	opts.Pagination.Page = 1
	writeJSON(w, endpoint, sortResponse{Sort: opts.Sort, Query: CanonicalQuery(opts)})
}

// CanonicalQuery renders opts back into the URL surface. Parameters at their
// defaults are left out.
func CanonicalQuery(opts query.Options) string {
	root := params.NewMap().
		Set(filter.FiltersParam, filter.Encode(opts.Filters)).
		Set(filter.SortParam, filter.EncodeSort(opts.Sort))
	if opts.Search != "" {
		root.Set(query.SearchParam, params.NewScalar(opts.Search))
	}
	if opts.Pagination.Enabled {
		if opts.Pagination.Page > 1 {
			root.Set(query.PageParam, params.NewScalar(strconv.Itoa(opts.Pagination.Page)))
		}
		root.Set(query.PerPageParam, params.NewScalar(strconv.Itoa(opts.Pagination.PerPage)))
	}
	return root.Encode()
}

func sortable(t *query.Table, key string) bool {
	for _, f := range t.Fields() {
		if f.Key == key {
			return f.Sortable
		}
	}
	return false
}

func nonNilSort(s filter.SortSpec) filter.SortSpec {
	if s == nil {
		return filter.SortSpec{}
	}
	return s
}

func compositionFailed(w http.ResponseWriter, endpoint string, err error) {
	logger.Error("compose_error", map[string]any{
		"endpoint": endpoint,
		"error":    err.Error(),
	})
	http.Error(w, "Failed to compose query: "+err.Error(), http.StatusInternalServerError)
}

func resolverFailed(w http.ResponseWriter, endpoint string, err error) {
	logger.Error("resolver_error", map[string]any{
		"endpoint": endpoint,
		"error":    err.Error(),
	})
	http.Error(w, "Failed to resolve data: "+err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, endpoint string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		http.Error(w, "Failed to write response: "+err.Error(), http.StatusInternalServerError)
	}
}
