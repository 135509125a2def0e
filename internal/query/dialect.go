package query

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Dialect selects placeholder style and the default search strategy.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown SQL dialect %q", s)
}

func (d Dialect) Placeholder() squirrel.PlaceholderFormat {
	if d == SQLite {
		return squirrel.Question
	}
	return squirrel.Dollar
}

// SupportsILike reports whether the store has a native case-insensitive LIKE.
func (d Dialect) SupportsILike() bool {
	return d != SQLite
}
