// Package extensions holds the transforms and custom queries the bundled
// resource files refer to by name.
package extensions

import (
	"fmt"
	"strconv"
	"strings"

	"LiveTable/internal/filter"
	"LiveTable/internal/model"
	"LiveTable/internal/query"

	"github.com/Masterminds/squirrel"
)

// Register makes every extension available to resource files. Call it before
// the registry is turned into tables.
func Register() {
	filter.RegisterTransform("price_at_most", PriceAtMost)
	filter.RegisterTransform("name_prefix", NamePrefix)
	query.RegisterCustomQuery("stocked_products", StockedProducts)
}

// PriceAtMost keeps rows whose price does not exceed data["max"].
func PriceAtMost(q squirrel.SelectBuilder, data map[string]string) (squirrel.SelectBuilder, error) {
	raw := strings.TrimSpace(data["max"])
	if raw == "" {
		return q, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return q, fmt.Errorf("price_at_most: max %q is not an integer", raw)
	}
	return q.Where(squirrel.LtOrEq{model.RootAlias + ".price": n}), nil
}

// NamePrefix keeps rows whose name starts with data["prefix"].
func NamePrefix(q squirrel.SelectBuilder, data map[string]string) (squirrel.SelectBuilder, error) {
	prefix := data["prefix"]
	if prefix == "" {
		return q, nil
	}
	return q.Where(squirrel.Like{model.RootAlias + ".name": prefix + "%"}), nil
}

// StockedProducts selects products with at least args[0] units on hand.
func StockedProducts(args ...any) (squirrel.SelectBuilder, error) {
	if len(args) != 1 {
		return squirrel.SelectBuilder{}, fmt.Errorf("stocked_products: want 1 argument, got %d", len(args))
	}
	return squirrel.Select("*").From("products").Where(squirrel.GtOrEq{"quantity": args[0]}), nil
}
