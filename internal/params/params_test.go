package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryNested(t *testing.T) {
	n, err := ParseQuery("filters[price][min]=10&filters[price][max]=20&filters[category][ids][]=3&filters[category][ids][]=4&search=gadget+plus")
	require.NoError(t, err)

	assert.Equal(t, []string{"filters", "search"}, n.Keys())
	assert.Equal(t, "gadget plus", n.Get("search").Value())

	price := n.Get("filters").Get("price")
	assert.Equal(t, Map, price.Kind())
	assert.Equal(t, "10", price.Get("min").Value())
	assert.Equal(t, "20", price.Get("max").Value())

	ids := n.Get("filters").Get("category").Get("ids")
	require.Equal(t, List, ids.Kind())
	require.Len(t, ids.Items(), 2)
	assert.Equal(t, "3", ids.Items()[0].Value())
	assert.Equal(t, "4", ids.Items()[1].Value())
}

func TestParseQueryKeepsKeyOrder(t *testing.T) {
	n, err := ParseQuery("sort_params[price]=desc&sort_params[name]=asc&sort_params[id]=asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "name", "id"}, n.Get("sort_params").Keys())
}

func TestParseQueryEscapedBrackets(t *testing.T) {
	n, err := ParseQuery("filters%5Bin_stock%5D=in_stock")
	require.NoError(t, err)
	assert.Equal(t, "in_stock", n.Get("filters").Get("in_stock").Value())
}

func TestParseQueryMalformedKeysAreLiteral(t *testing.T) {
	n, err := ParseQuery("a[b=1&[x]=2&c]d[=3")
	require.NoError(t, err)
	assert.Equal(t, "1", n.Get("a[b").Value())
	assert.Equal(t, "2", n.Get("[x]").Value())
	assert.Equal(t, "3", n.Get("c]d[").Value())
}

func TestParseQueryListOfMaps(t *testing.T) {
	n, err := ParseQuery("rows[][id]=1&rows[][name]=a&rows[][id]=2")
	require.NoError(t, err)
	rows := n.Get("rows").Items()
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].Get("id").Value())
	assert.Equal(t, "a", rows[0].Get("name").Value())
	assert.Equal(t, "2", rows[1].Get("id").Value())
}

func TestParseQueryBadEscapeKeepsGoing(t *testing.T) {
	n, err := ParseQuery("a=%zz&b=2")
	require.Error(t, err)
	assert.Nil(t, n.Get("a"))
	assert.Equal(t, "2", n.Get("b").Value())
}

func TestParseQueryLastConflictWins(t *testing.T) {
	n, err := ParseQuery("f[x]=1&f[x][min]=2")
	require.NoError(t, err)
	assert.Equal(t, "2", n.Get("f").Get("x").Get("min").Value())
}

func TestEncodeRoundTrip(t *testing.T) {
	n := NewMap()
	n.Set("sort_params", NewMap().Set("name", NewScalar("asc")).Set("price", NewScalar("desc")))
	n.Set("filters", NewMap().
		Set("category", NewMap().Set("ids", Strings("3", "4"))).
		Set("in_stock", NewScalar("in_stock")))
	n.Set("search", NewScalar("a&b"))

	raw := n.Encode()
	assert.Equal(t,
		"sort_params[name]=asc&sort_params[price]=desc&filters[category][ids][]=3&filters[category][ids][]=4&filters[in_stock]=in_stock&search=a%26b",
		raw)

	back, err := ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, back.Encode())
}

func TestEncodeSkipsEmptyContainers(t *testing.T) {
	n := NewMap().Set("filters", NewMap()).Set("ids", NewList()).Set("page", NewScalar("2"))
	assert.Equal(t, "page=2", n.Encode())
}

func TestSetKeepsPosition(t *testing.T) {
	n := NewMap().Set("a", NewScalar("1")).Set("b", NewScalar("2"))
	n.Set("a", NewScalar("3"))
	assert.Equal(t, []string{"a", "b"}, n.Keys())
	assert.Equal(t, "3", n.Get("a").Value())

	n.Delete("a")
	assert.Equal(t, []string{"b"}, n.Keys())
}

func TestFromValuesSortsKeys(t *testing.T) {
	n := FromValues(url.Values{"page": {"2"}, "filters[x][]": {"1", "2"}})
	assert.Equal(t, []string{"filters", "page"}, n.Keys())
	assert.Len(t, n.Get("filters").Get("x").Items(), 2)
}

func TestIsBlank(t *testing.T) {
	var nilNode *Node
	assert.True(t, nilNode.IsBlank())
	assert.True(t, NewScalar("  ").IsBlank())
	assert.True(t, NewMap().IsBlank())
	assert.False(t, Strings("1").IsBlank())
}
