// Package tree walks generic decoded documents (map[string]any / []any
// trees) and reports matches together with the path that reached them.
package tree

import "sort"

// Match is a node found by a search together with its location.
type Match struct {
	Path  Path
	Value any
}

// Visitor is called for every node in the tree, parents before children.
// Returning false skips the node's children.
type Visitor func(p Path, v any) bool

// KeyOrder lists the keys of each mapping, indexed by the mapping's JSON
// Pointer, in the order the source document declared them.
type KeyOrder map[string][]string

// Keys returns the keys of m, the mapping at p, in declaration order. Keys
// the order does not list follow in ascending order; without an entry for p
// all keys are sorted.
func (o KeyOrder) Keys(p Path, m map[string]any) []string {
	if o == nil {
		return SortedKeys(m)
	}
	declared, ok := o[p.Pointer()]
	if !ok {
		return SortedKeys(m)
	}
	keys := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for _, k := range declared {
		if _, ok := m[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if len(keys) == len(m) {
		return keys
	}
	for _, k := range SortedKeys(m) {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Walker traverses trees in document order. The zero Walker visits mapping
// keys in sorted order since decoded Go maps carry no order.
type Walker struct {
	Order KeyOrder
}

// Walk visits every node below root, parents before children.
func Walk(root any, fn Visitor) { Walker{}.Walk(root, fn) }

// FindKey is Walker.FindKey with sorted mapping keys.
func FindKey(root any, key string, pred func(parent map[string]any) bool) []Match {
	return Walker{}.FindKey(root, key, pred)
}

// FindElements is Walker.FindElements with sorted mapping keys.
func FindElements(root any, key string, pred func(elem map[string]any) bool) []Match {
	return Walker{}.FindElements(root, key, pred)
}

// Walk visits every node below root, parents before children.
func (w Walker) Walk(root any, fn Visitor) {
	w.walk(nil, root, fn)
}

func (w Walker) walk(p Path, v any, fn Visitor) {
	if !fn(p, v) {
		return
	}
	switch t := v.(type) {
	case map[string]any:
		for _, k := range w.Order.Keys(p, t) {
			w.walk(p.Field(k), t[k], fn)
		}
	case []any:
		for i, e := range t {
			w.walk(p.Index(i), e, fn)
		}
	}
}

// FindKey returns every value stored under key at any depth, in walk order.
// When pred is non-nil it must accept the mapping holding the key.
func (w Walker) FindKey(root any, key string, pred func(parent map[string]any) bool) []Match {
	var out []Match
	w.Walk(root, func(p Path, v any) bool {
		m, ok := v.(map[string]any)
		if !ok {
			return true
		}
		child, ok := m[key]
		if !ok {
			return true
		}
		if pred == nil || pred(m) {
			out = append(out, Match{Path: p.Field(key), Value: child})
		}
		return true
	})
	return out
}

// FindElements returns every element of every sequence stored under key at
// any depth ($..key[*]). Elements are filtered by pred when it is non-nil.
func (w Walker) FindElements(root any, key string, pred func(elem map[string]any) bool) []Match {
	var out []Match
	for _, seq := range w.FindKey(root, key, nil) {
		items, ok := seq.Value.([]any)
		if !ok {
			continue
		}
		for i, item := range items {
			if pred != nil {
				m, ok := item.(map[string]any)
				if !ok || !pred(m) {
					continue
				}
			}
			out = append(out, Match{Path: seq.Path.Index(i), Value: item})
		}
	}
	return out
}

// Lookup resolves p against root. ok is false when a step does not exist.
func Lookup(root any, p Path) (any, bool) {
	cur := root
	for _, s := range p {
		if s.IsIndex {
			items, ok := cur.([]any)
			if !ok || s.Index < 0 || s.Index >= len(items) {
				return nil, false
			}
			cur = items[s.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[s.Key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// StringField returns m[key] when it holds a string.
func StringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
