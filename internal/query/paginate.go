package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Pagination is the validated page request. Page and PerPage are expected to
// come from ParsePage and ParsePerPage.
type Pagination struct {
	Enabled    bool
	Page       int
	PerPage    int
	MaxPerPage int
}

// Offset is the number of rows before the requested page. It saturates at
// the largest signed 64-bit value so the literal always fits a bigint.
func (p Pagination) Offset() uint64 {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	page, perPage := uint64(p.Page-1), uint64(p.PerPage)
	if page > math.MaxInt64/perPage {
		return math.MaxInt64
	}
	return page * perPage
}

// Paginate limits q to one page plus one extra row. A caller that gets
// PerPage+1 rows back drops the last one and knows a next page exists.
func Paginate(q squirrel.SelectBuilder, p Pagination) squirrel.SelectBuilder {
	if !p.Enabled {
		return q
	}
	perPage := p.PerPage
	if perPage < 1 {
		perPage = 1
	}
	return q.Offset(p.Offset()).Limit(uint64(perPage) + 1)
}

// ParsePage reads the page parameter. Missing, unparsable or non-positive
// input means page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParsePerPage reads the per_page parameter. Missing or unparsable input
// falls back to def; a number outside [1, max] is clamped to the nearest
// bound.
func ParsePerPage(raw string, def, max int) int {
	if max < 1 {
		max = 1
	}
	if def < 1 || def > max {
		def = max
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}
