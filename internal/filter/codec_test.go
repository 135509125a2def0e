package filter

import (
	"testing"

	"LiveTable/internal/params"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip encodes state into a query string, parses it back and decodes it.
func roundTrip(t *testing.T, state State, declared []Filter) (string, State) {
	t.Helper()
	root := params.NewMap().Set(FiltersParam, Encode(state))
	raw := root.Encode()
	back, err := params.ParseQuery(raw)
	require.NoError(t, err)
	return raw, Decode(back.Get(FiltersParam), declared)
}

func TestCodecRoundTripFiltersIdentically(t *testing.T) {
	s := testSchema(t)

	r := price
	r.CurrentMin, r.CurrentMax = ptr(50), ptr(100)
	w := weight
	w.CurrentMin, w.CurrentMax = ptr(0.5), ptr(7.5)
	c := cat
	c.Selected = []any{int64(3), int64(9)}
	tr := tagged
	tr.Data = map[string]string{"tag": "new"}
	// fractional bounds on an integer step bind rounded
	odd := Range{URLKey: "rating", Field: "price", Min: 0.4, Max: 9.7, Step: 1}
	oddMid := odd
	oddMid.CurrentMin = ptr(2.6)

	declared := []Filter{inStock, price, weight, cat, tagged, odd}
	for _, f := range []Filter{inStock, r, w, c, odd, oddMid} {
		raw, got := roundTrip(t, State{f}, declared)
		require.Len(t, got, 1, raw)
		wantSQL, wantArgs := render(t, f, s)
		gotSQL, gotArgs := render(t, got[0], s)
		assert.Equal(t, wantSQL, gotSQL, raw)
		if diff := cmp.Diff(wantArgs, gotArgs); diff != "" {
			t.Fatalf("%s: args mismatch (-want +got):\n%s", raw, diff)
		}
	}

	raw, got := roundTrip(t, State{tr}, declared)
	require.Len(t, got, 1, raw)
	assert.Equal(t, tr.Data, got[0].(Transformer).Data)
}

func TestEncodeWireShapes(t *testing.T) {
	r := price
	r.CurrentMin, r.CurrentMax = ptr(10), ptr(20)
	c := cat
	c.Selected = []any{int64(3)}

	got := params.NewMap().Set(FiltersParam, Encode(State{inStock, r, c, tagged})).Encode()
	assert.Equal(t,
		"filters[in_stock]=in_stock&filters[price][min]=10&filters[price][max]=20&filters[category][ids][]=3",
		got)
}

func TestEncodeOmitsEmptyTransformer(t *testing.T) {
	tr := tagged
	tr.Data = map[string]string{}
	assert.Equal(t, 0, Encode(State{tr}).Len())

	_, back := roundTrip(t, State{tr}, []Filter{tagged})
	assert.Empty(t, back)
}

func TestDecodeRangeBounds(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		min, max float64
	}{
		{"both", "filters[price][min]=50&filters[price][max]=100", 50, 100},
		{"only min", "filters[price][min]=50", 50, 200},
		{"unparsable", "filters[price][min]=abc&filters[price][max]=100", 0, 100},
		{"fraction on integral step", "filters[price][min]=1.5&filters[price][max]=100", 0, 100},
		{"clamped", "filters[price][min]=-10&filters[price][max]=999", 0, 200},
		{"inverted", "filters[price][min]=100&filters[price][max]=50", 50, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := params.ParseQuery(tc.query)
			require.NoError(t, err)
			st := Decode(n.Get(FiltersParam), []Filter{price})
			require.Len(t, st, 1)
			lo, hi := st[0].(Range).Bounds()
			assert.Equal(t, tc.min, lo)
			assert.Equal(t, tc.max, hi)
		})
	}
}

func TestDecodeRangeFractional(t *testing.T) {
	n, err := params.ParseQuery("filters[weight][min]=1.25&filters[weight][max]=NaN")
	require.NoError(t, err)
	st := Decode(n.Get(FiltersParam), []Filter{weight})
	require.Len(t, st, 1)
	lo, hi := st[0].(Range).Bounds()
	assert.Equal(t, 1.25, lo)
	assert.Equal(t, 10.0, hi)
}

func TestDecodeSelectShapes(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []any
	}{
		{"ids list", "filters[category][ids][]=3&filters[category][ids][]=4", []any{int64(3), int64(4)}},
		{"array wrapped", "filters[category][ids][]=%5B3%5D&filters[category][ids][]=%5B4%5D", []any{int64(3), int64(4)}},
		{"bare scalar", "filters[category]=3", []any{int64(3)}},
		{"bare list", "filters[category][]=3&filters[category][]=%5B4%5D", []any{int64(3), int64(4)}},
		{"json array scalar", "filters[category]=%5B3,4%5D", []any{int64(3), int64(4)}},
		{"comma separated", "filters[category][ids]=3,4", []any{int64(3), int64(4)}},
		{"legacy id", "filters[category][id]=7", []any{int64(7)}},
		{"drops junk and repeats", "filters[category][ids][]=x&filters[category][ids][]=3&filters[category][ids][]=3", []any{int64(3)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := params.ParseQuery(tc.query)
			require.NoError(t, err)
			st := Decode(n.Get(FiltersParam), []Filter{cat})
			require.Len(t, st, 1)
			if diff := cmp.Diff(tc.want, st[0].(Select).Selected); diff != "" {
				t.Fatalf("selected mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeSelectAllInvalidRemovesKey(t *testing.T) {
	for _, q := range []string{
		"filters[category][ids][]=x&filters[category][ids][]=y",
		"filters[category][ids][]=",
		"filters[category][other]=1",
	} {
		n, err := params.ParseQuery(q)
		require.NoError(t, err)
		assert.Empty(t, Decode(n.Get(FiltersParam), []Filter{cat}), q)
	}
}

func TestDecodeSelectTypedIDs(t *testing.T) {
	uuidSel := Select{URLKey: "owner", Field: "owner_id", IDType: "uuid"}
	strSel := Select{URLKey: "status", Field: "status", IDType: "string"}

	n, err := params.ParseQuery("filters[owner][ids][]=6F9619FF-8B86-D011-B42D-00CF4FC964FF&filters[owner][ids][]=nope&filters[status][ids][]=open&filters[status][ids][]=+closed+")
	require.NoError(t, err)
	st := Decode(n.Get(FiltersParam), []Filter{uuidSel, strSel})
	require.Len(t, st, 2)
	assert.Equal(t, []any{"6f9619ff-8b86-d011-b42d-00cf4fc964ff"}, st[0].(Select).Selected)
	assert.Equal(t, []any{"open", "closed"}, st[1].(Select).Selected)
}

func TestDecodeTransformerPayload(t *testing.T) {
	n, err := params.ParseQuery("filters[tagged][tag]=new&filters[tagged][nested][x]=1")
	require.NoError(t, err)
	st := Decode(n.Get(FiltersParam), []Filter{tagged})
	require.Len(t, st, 1)
	assert.Equal(t, map[string]string{"tag": "new"}, st[0].(Transformer).Data)
	assert.NotNil(t, st[0].(Transformer).Transform)
}
