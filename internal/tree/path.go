package tree

import (
	"strconv"
	"strings"
)

// Step is one hop from a container to a child: a mapping key or a sequence index.
type Step struct {
	Key   string
	Index int
	// IsIndex reports whether the step addresses a sequence element.
	IsIndex bool
}

// Path locates a node within a document tree. Paths are immutable; the
// builders always copy.
type Path []Step

// Field returns a new path extended with a mapping key.
func (p Path) Field(name string) Path {
	return append(append(Path{}, p...), Step{Key: name})
}

// Index returns a new path extended with a sequence index.
func (p Path) Index(i int) Path {
	return append(append(Path{}, p...), Step{Index: i, IsIndex: true})
}

// Pointer renders the path as a JSON Pointer (RFC 6901).
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		if s.IsIndex {
			b.WriteString(strconv.Itoa(s.Index))
			continue
		}
		b.WriteString(EscapeToken(s.Key))
	}
	return b.String()
}

// EscapeToken escapes one reference token: '~' becomes "~0", '/' becomes "~1".
func EscapeToken(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

// PointerFrom renders unescaped reference tokens as a JSON Pointer.
func PointerFrom(tokens []string) string {
	if len(tokens) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(EscapeToken(t))
	}
	return b.String()
}

func (p Path) String() string { return p.Pointer() }

// Has reports whether any key step equals name.
func (p Path) Has(name string) bool {
	return p.lastKey(name) >= 0
}

// HasAny reports whether any key step equals one of names.
func (p Path) HasAny(names ...string) bool {
	for _, n := range names {
		if p.Has(n) {
			return true
		}
	}
	return false
}

// Enclosing returns the prefix ending at the element of the nearest (deepest)
// sequence stored under key, e.g. Enclosing("blocks") on
// /sections/0/groups/1/blocks/2/question/id yields /sections/0/groups/1/blocks/2.
// ok is false when the path does not pass through key[i].
func (p Path) Enclosing(key string) (prefix Path, index int, ok bool) {
	i := p.lastKey(key)
	if i < 0 || i+1 >= len(p) || !p[i+1].IsIndex {
		return nil, 0, false
	}
	return p[:i+2:i+2], p[i+1].Index, true
}

// After returns the steps following prefix. It assumes prefix is a prefix of p.
func (p Path) After(prefix Path) Path {
	if len(prefix) > len(p) {
		return nil
	}
	return p[len(prefix):]
}

func (p Path) lastKey(name string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsIndex && p[i].Key == name {
			return i
		}
	}
	return -1
}
