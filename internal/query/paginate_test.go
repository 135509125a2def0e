package query

import (
	"math"
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
)

func TestPaginate(t *testing.T) {
	base := squirrel.Select("*").From("products AS main")

	sql, _, _ := Paginate(base, Pagination{Enabled: false, Page: 3, PerPage: 10}).ToSql()
	if strings.Contains(sql, "LIMIT") || strings.Contains(sql, "OFFSET") {
		t.Fatalf("disabled pagination must not limit: %s", sql)
	}

	sql, _, _ = Paginate(base, Pagination{Enabled: true, Page: 1, PerPage: 10}).ToSql()
	if !strings.HasSuffix(sql, "LIMIT 11 OFFSET 0") {
		t.Fatalf("page 1: %s", sql)
	}

	sql, _, _ = Paginate(base, Pagination{Enabled: true, Page: 3, PerPage: 25}).ToSql()
	if !strings.HasSuffix(sql, "LIMIT 26 OFFSET 50") {
		t.Fatalf("page 3: %s", sql)
	}

	sql, _, _ = Paginate(base, Pagination{Enabled: true, Page: 0, PerPage: 0}).ToSql()
	if !strings.HasSuffix(sql, "LIMIT 2 OFFSET 0") {
		t.Fatalf("unvalidated input: %s", sql)
	}

	huge := []struct {
		page    string
		perPage int
	}{
		{"1152921504606846977", 16},
		{"9223372036854775807", 10},
	}
	for _, tc := range huge {
		p := Pagination{Enabled: true, Page: ParsePage(tc.page), PerPage: tc.perPage}
		if got := p.Offset(); got != math.MaxInt64 {
			t.Fatalf("page %s: offset %d must saturate", tc.page, got)
		}
		sql, _, _ = Paginate(base, p).ToSql()
		if !strings.HasSuffix(sql, "OFFSET 9223372036854775807") {
			t.Fatalf("page %s: %s", tc.page, sql)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":    1,
		"abc": 1,
		"0":   1,
		"-4":  1,
		"1":   1,
		" 7 ": 7,

		"9223372036854775807": math.MaxInt64,
	}
	for in, want := range cases {
		if got := ParsePage(in); got != want {
			t.Fatalf("ParsePage(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParsePerPage(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 10},    // missing: default
		{"ten", 10}, // unparsable: default
		{"0", 1},    // below range: clamped up
		{"-3", 1},
		{"25", 25},
		{"50", 50},
		{"51", 50}, // above range: clamped down
	}
	for _, tc := range cases {
		if got := ParsePerPage(tc.in, 10, 50); got != tc.want {
			t.Fatalf("ParsePerPage(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := ParsePerPage("", 100, 50); got != 50 {
		t.Fatalf("default above max should be capped, got %d", got)
	}
}
