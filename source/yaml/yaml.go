// Package yaml decodes YAML documents into the same generic trees the JSON
// loader produces, optionally rejecting duplicate mapping keys.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/qschema/internal/tree"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// Decode converts the first YAML document into a JSON-compatible Go value
// (map[string]any, []any, string, bool, json.Number, nil) and the key order of
// every mapping. When strict is set a repeated mapping key fails with
// *DuplicateKeyError.
func Decode(data []byte, strict bool) (any, tree.KeyOrder, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("decode yaml: empty document")
		}
		return nil, nil, fmt.Errorf("decode yaml: %w", err)
	}
	c := &converter{strict: strict, order: tree.KeyOrder{}}
	v, err := c.node(&root, nil)
	if err != nil {
		return nil, nil, err
	}
	return v, c.order, nil
}

type converter struct {
	strict bool
	order  tree.KeyOrder
}

func (c *converter) node(n *yaml.Node, p tree.Path) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.node(n.Content[0], p)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nil
		}
		return c.node(n.Alias, p)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string][2]int, len(n.Content)/2)
		keys := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			key := k.Value
			if pos, dup := first[key]; dup && c.strict {
				return nil, &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			if _, dup := first[key]; !dup {
				first[key] = [2]int{k.Line, k.Column}
				keys = append(keys, key)
			}
			val, err := c.node(n.Content[i+1], p.Field(key))
			if err != nil {
				return nil, err
			}
			m[key] = val
		}
		c.order[p.Pointer()] = keys
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for i, e := range n.Content {
			v, err := c.node(e, p.Index(i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n), nil
	default:
		return nil, nil
	}
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
		return n.Value
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return j.Number(strconv.FormatInt(i, 10))
		}
		return n.Value
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return j.Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return n.Value
	default:
		return n.Value
	}
}
