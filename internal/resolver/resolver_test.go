package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"LiveTable/internal/config"
	"LiveTable/internal/filter"
	"LiveTable/internal/model"
	"LiveTable/internal/query"

	"github.com/Masterminds/squirrel"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T, n int) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price INTEGER NOT NULL)`)
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := db.Exec(`INSERT INTO products (name, price) VALUES (?, ?)`, fmt.Sprintf("P%02d", i), i*10)
		require.NoError(t, err)
	}
	return db
}

func productsTable(t *testing.T) *query.Table {
	t.Helper()
	res := &model.Resource{
		Schema: model.Schema{Name: "products", Table: "products"},
		Fields: []model.FieldDescriptor{
			{Key: "id", Type: "int", Sortable: true},
			{Key: "name", Sortable: true, Searchable: true},
			{Key: "price", Type: "int", Sortable: true},
		},
	}
	require.NoError(t, res.Link())
	table, err := query.TableFromResource(res)
	require.NoError(t, err)
	return table
}

func listOpts(page, perPage int) query.Options {
	return query.Options{
		Dialect:     query.SQLite,
		SortEnabled: true,
		Sort:        filter.SortSpec{{Key: "id", Dir: filter.Asc}},
		Pagination:  query.Pagination{Enabled: true, Page: page, PerPage: perPage, MaxPerPage: 50},
	}
}

func TestFetchPageStripsOverfetchedRow(t *testing.T) {
	exec := SQLExecutor{DB: openDB(t, 25)}
	table := productsTable(t)

	cases := []struct {
		page, rows int
		next       bool
		firstID    int64
	}{
		{1, 10, true, 1},
		{2, 10, true, 11},
		{3, 5, false, 21},
		{9, 0, false, 0},
	}
	for _, tc := range cases {
		opts := listOpts(tc.page, 10)
		q, err := table.List(opts)
		require.NoError(t, err)
		page, err := FetchPage(context.Background(), exec, q, opts.Pagination)
		require.NoError(t, err)
		assert.Len(t, page.Rows, tc.rows, "page %d", tc.page)
		assert.Equal(t, tc.next, page.HasNextPage, "page %d", tc.page)
		assert.NotNil(t, page.Rows)
		if tc.rows > 0 {
			assert.Equal(t, tc.firstID, page.Rows[0]["id"])
		}
	}
}

func TestFetchPageExactMultipleHasNoNextPage(t *testing.T) {
	exec := SQLExecutor{DB: openDB(t, 20)}
	opts := listOpts(2, 10)
	q, err := productsTable(t).List(opts)
	require.NoError(t, err)
	page, err := FetchPage(context.Background(), exec, q, opts.Pagination)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 10)
	assert.False(t, page.HasNextPage)
}

func TestInfiniteAppendsPages(t *testing.T) {
	table := productsTable(t)
	in := &Infinite{
		Exec:  SQLExecutor{DB: openDB(t, 23)},
		Build: table.List,
		Opts:  listOpts(0, 10),
	}
	ctx := context.Background()
	loads := 0
	for {
		more, err := in.Next(ctx)
		require.NoError(t, err)
		if !more {
			break
		}
		loads++
	}
	assert.Equal(t, 3, loads)
	require.Len(t, in.Rows, 23)
	for i, r := range in.Rows {
		assert.Equal(t, int64(i+1), r["id"])
	}
	assert.False(t, in.HasNext)
}

func TestFetchCountAndAll(t *testing.T) {
	exec := SQLExecutor{DB: openDB(t, 7)}
	table := productsTable(t)
	opts := listOpts(1, 2)

	q, err := table.Count(opts)
	require.NoError(t, err)
	n, err := FetchCount(context.Background(), exec, q)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	q, err = table.Export(opts, 5)
	require.NoError(t, err)
	rows, err := FetchAll(context.Background(), exec, q)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

type countingExecutor struct {
	calls int
	rows  []Row
}

func (c *countingExecutor) Query(_ context.Context, _ string, _ ...any) ([]Row, error) {
	c.calls++
	return c.rows, nil
}

func TestCachedExecutor(t *testing.T) {
	next := &countingExecutor{rows: []Row{{"id": int64(1), "name": "a"}}}
	exec := CachedExecutor{Next: next, Cache: NewMemoryCache(1 << 20), TTL: time.Minute}
	ctx := context.Background()

	rows, err := exec.Query(ctx, "SELECT 1 WHERE x = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0]["id"])

	rows, err = exec.Query(ctx, "SELECT 1 WHERE x = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1.0, rows[0]["id"]) // served from JSON

	_, err = exec.Query(ctx, "SELECT 1 WHERE x = ?", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "arguments of another type must not share a key")

	off := CachedExecutor{Next: next, Cache: NewMemoryCache(0)}
	_, err = off.Query(ctx, "SELECT 1 WHERE x = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func TestMemoryCacheExpiryAndLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(64)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", []byte("0123456789"), time.Minute))
	_, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)

	// too large for the whole cache
	require.NoError(t, c.Set(ctx, "big", make([]byte, 100), time.Minute))
	_, ok, _ = c.Get(ctx, "big")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.totalBytes)
}

func TestNewCache(t *testing.T) {
	assert.Nil(t, NewCache(config.PageCacheConfig{TTLSec: 0}, nil))
	_, isMem := NewCache(config.PageCacheConfig{TTLSec: 5, MaxBytes: 1024}, nil).(*MemoryCache)
	assert.True(t, isMem)
}

func TestParseLimitValueAndFormat(t *testing.T) {
	v, ok := parseLimitValue("1073741824\n")
	assert.True(t, ok)
	assert.Equal(t, "1.00 GB", formatBytes(v))
	_, ok = parseLimitValue("max")
	assert.False(t, ok)
	assert.Equal(t, "512 B", formatBytes(512))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	c := RedisCache{Client: rdb}
	key := fmt.Sprintf("page:test:%d", time.Now().UnixNano())
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`[]`), time.Second*5))
	data, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(data))
	rdb.Del(ctx, key)
}

func TestFetchPageSurfacesQueryErrors(t *testing.T) {
	exec := SQLExecutor{DB: openDB(t, 1)}
	q := squirrel.Select("nope").From("missing_table")
	_, err := FetchPage(context.Background(), exec, q, query.Pagination{})
	assert.Error(t, err)
}
