package query

import (
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"LiveTable/internal/filter"
	"LiveTable/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func productSchema(t *testing.T) *model.Schema {
	t.Helper()
	s := &model.Schema{
		Name:  "products",
		Table: "products",
		Associations: map[string]*model.Association{
			"category": {Table: "categories"},
		},
	}
	require.NoError(t, s.Link())
	return s
}

var productFields = []model.FieldDescriptor{
	{Key: "id", Type: "int", Sortable: true},
	{Key: "name", Sortable: true, Searchable: true},
	{Key: "price", Type: "int", Sortable: true},
	{Key: "quantity", Type: "int", Hidden: true},
	{Key: "category_name", Assoc: "category", Column: "name", Sortable: true, Searchable: true},
}

func ptr(v float64) *float64 { return &v }

var (
	inStock     = filter.Boolean{URLKey: "in_stock", Condition: filter.Condition{Field: "quantity", Op: "gt", Value: 0}}
	priceRange  = filter.Range{URLKey: "price", Field: "price", Min: 0, Max: 1000, Step: 1}
	categorySel = filter.Select{URLKey: "category", Field: "category.name", IDType: "int"}
	cheaper     = filter.Transformer{URLKey: "cheaper", Transform: func(q squirrel.SelectBuilder, data map[string]string) (squirrel.SelectBuilder, error) {
		than, err := strconv.Atoi(data["than"])
		if err != nil {
			return q, fmt.Errorf("cheaper: bad threshold %q: %w", data["than"], err)
		}
		return q.Where(squirrel.Expr("main.price < ?", than)), nil
	}}
)

type productsDef struct{}

func (productsDef) Fields() []model.FieldDescriptor { return productFields }
func (productsDef) Filters() []filter.Filter {
	return []filter.Filter{inStock, priceRange, categorySel, cheaper}
}

type product struct {
	name       string
	price      int
	quantity   int
	categoryID any
}

// openDB returns an in-memory SQLite database with the given products and
// two categories (1 Tools, 2 Toys).
func openDB(t *testing.T, products []product) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price INTEGER NOT NULL, quantity INTEGER NOT NULL DEFAULT 0, category_id INTEGER REFERENCES categories(id))`,
		`INSERT INTO categories (id, name) VALUES (1, 'Tools'), (2, 'Toys')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	for _, p := range products {
		_, err := db.Exec(`INSERT INTO products (name, price, quantity, category_id) VALUES (?, ?, ?, ?)`, p.name, p.price, p.quantity, p.categoryID)
		require.NoError(t, err)
	}
	return db
}

// fetch runs q and returns every row as column -> value.
func fetch(t *testing.T, db *sql.DB, q squirrel.SelectBuilder) []map[string]any {
	t.Helper()
	sqlStr, args, err := q.ToSql()
	require.NoError(t, err)
	rows, err := db.Query(sqlStr, args...)
	require.NoError(t, err, sqlStr)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	require.NoError(t, rows.Err())
	return out
}

func names(rows []map[string]any) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprint(r["name"]))
	}
	return out
}

func sqliteOpts() Options {
	return Options{Dialect: SQLite, SearchMode: SearchAuto, SortEnabled: true}
}
