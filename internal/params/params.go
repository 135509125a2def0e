// Package params parses and builds bracket-notation query strings
// (filters[price][min]=10&filters[category][ids][]=3) as an ordered tree, so
// the order of keys such as sort_params survives a round trip.
package params

import (
	"net/url"
	"sort"
	"strings"

	"github.com/cevaris/ordered_map"
)

type Kind int

const (
	Empty Kind = iota
	Scalar
	List
	Map
)

// Node is one value of a nested parameter tree.
type Node struct {
	kind     Kind
	value    string
	items    []*Node
	children *ordered_map.OrderedMap // string -> *Node
}

func NewMap() *Node {
	return &Node{kind: Map, children: ordered_map.NewOrderedMap()}
}

func NewScalar(v string) *Node {
	return &Node{kind: Scalar, value: v}
}

func NewList(items ...*Node) *Node {
	return &Node{kind: List, items: items}
}

// Strings builds a list of scalars.
func Strings(vals ...string) *Node {
	n := NewList()
	for _, v := range vals {
		n.items = append(n.items, NewScalar(v))
	}
	return n
}

func (n *Node) Kind() Kind {
	if n == nil {
		return Empty
	}
	return n.kind
}

// Value returns the scalar value, or "" for any other kind.
func (n *Node) Value() string {
	if n == nil || n.kind != Scalar {
		return ""
	}
	return n.value
}

func (n *Node) Items() []*Node {
	if n == nil || n.kind != List {
		return nil
	}
	return n.items
}

// Get returns the child under key, nil when n is not a map or lacks key.
func (n *Node) Get(key string) *Node {
	if n == nil || n.kind != Map {
		return nil
	}
	v, ok := n.children.Get(key)
	if !ok {
		return nil
	}
	return v.(*Node)
}

// Keys returns map keys in insertion order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != Map {
		return nil
	}
	keys := make([]string, 0, n.children.Len())
	iter := n.children.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		keys = append(keys, kv.Key.(string))
	}
	return keys
}

// Set stores child under key, keeping the position of an existing key.
func (n *Node) Set(key string, child *Node) *Node {
	n.become(Map)
	n.children.Set(key, child)
	return n
}

func (n *Node) Delete(key string) {
	if n == nil || n.kind != Map {
		return
	}
	n.children.Delete(key)
}

func (n *Node) Append(child *Node) *Node {
	n.become(List)
	n.items = append(n.items, child)
	return n
}

// Len is the number of children of a map or items of a list.
func (n *Node) Len() int {
	switch n.Kind() {
	case Map:
		return n.children.Len()
	case List:
		return len(n.items)
	}
	return 0
}

// IsBlank reports whether the node carries no value at all.
func (n *Node) IsBlank() bool {
	switch n.Kind() {
	case Empty:
		return true
	case Scalar:
		return strings.TrimSpace(n.value) == ""
	}
	return n.Len() == 0
}

// become switches n to kind k; a node of another kind is reset, so the last
// conflicting parameter wins.
func (n *Node) become(k Kind) {
	if n.kind == k {
		return
	}
	n.kind = k
	n.value = ""
	n.items = nil
	n.children = nil
	if k == Map {
		n.children = ordered_map.NewOrderedMap()
	}
}

// ParseQuery parses a raw query string into a map node. Like url.ParseQuery
// it keeps going after a malformed pair and returns the first error seen.
func ParseQuery(raw string) (*Node, error) {
	root := NewMap()
	var firstErr error
	raw = strings.TrimPrefix(raw, "?")
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if k == "" {
			continue
		}
		root.insert(splitKey(k), v)
	}
	return root, firstErr
}

// FromValues builds a tree from url.Values. Keys are visited in sorted order
// since url.Values carries none.
func FromValues(values url.Values) *Node {
	root := NewMap()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range values[k] {
			root.insert(splitKey(k), v)
		}
	}
	return root
}

// splitKey turns "a[b][]" into ["a", "b", ""]. Malformed keys are literal.
func splitKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i <= 0 {
		return []string{key}
	}
	segs := []string{key[:i]}
	rest := key[i:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			return []string{key}
		}
		segs = append(segs, rest[1:j])
		rest = rest[j+1:]
	}
	return segs
}

func (n *Node) insert(segs []string, value string) {
	head, rest := segs[0], segs[1:]

	if head == "" {
		n.become(List)
		if len(rest) == 0 {
			n.items = append(n.items, NewScalar(value))
			return
		}
		// a[][x]=1&a[][y]=2&a[][x]=3 -> [{x:1, y:2}, {x:3}]
		var last *Node
		if len(n.items) > 0 {
			last = n.items[len(n.items)-1]
		}
		if last == nil || last.kind != Map || rest[0] == "" || last.Get(rest[0]) != nil {
			last = NewMap()
			n.items = append(n.items, last)
		}
		last.insert(rest, value)
		return
	}

	n.become(Map)
	if len(rest) == 0 {
		n.children.Set(head, NewScalar(value))
		return
	}
	child := n.Get(head)
	if child == nil || child.kind == Scalar {
		child = &Node{}
		n.children.Set(head, child)
	}
	child.insert(rest, value)
}

// Encode renders the tree as a query string in key order.
func (n *Node) Encode() string {
	var pairs []string
	n.encode("", &pairs)
	return strings.Join(pairs, "&")
}

func (n *Node) encode(prefix string, pairs *[]string) {
	switch n.Kind() {
	case Scalar:
		if prefix != "" {
			*pairs = append(*pairs, prefix+"="+url.QueryEscape(n.value))
		}
	case List:
		for _, item := range n.items {
			item.encode(prefix+"[]", pairs)
		}
	case Map:
		for _, k := range n.Keys() {
			seg := url.QueryEscape(k)
			if prefix != "" {
				seg = prefix + "[" + seg + "]"
			}
			n.Get(k).encode(seg, pairs)
		}
	}
}
