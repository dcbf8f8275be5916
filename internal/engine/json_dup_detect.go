package engine

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/qschema/internal/tree"
)

// DuplicateKey describes an object key that appears more than once.
type DuplicateKey struct {
	Key string
	// Path is the JSON Pointer of the object holding the key.
	Path string
}

// Scan is the result of a token-level pass over a JSON document.
type Scan struct {
	// Order lists the keys of every object, by the object's JSON Pointer, in
	// input order. A repeated key keeps its first position.
	Order tree.KeyOrder
	// Duplicates holds every repeated key in input order.
	Duplicates []DuplicateKey
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type dupFrame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	// ptr is the JSON Pointer of this container.
	ptr string
	// next is the index of the next element (arrays); key is the pending key (objects).
	next int
	key  string
}

// ScanJSON reads a JSON document token by token, recording object key order
// and repeated keys. It does not build the decoded tree.
func ScanJSON(data []byte) (Scan, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	sc := Scan{Order: tree.KeyOrder{}}
	var stack []dupFrame

	// child returns the pointer of a value about to be read in the top container.
	child := func() string {
		if len(stack) == 0 {
			return "/"
		}
		top := &stack[len(stack)-1]
		var seg string
		if top.kind == kindArray {
			seg = strconv.Itoa(top.next)
			top.next++
		} else {
			top.expectingKey = true
			seg = tree.EscapeToken(top.key)
		}
		if top.ptr == "/" {
			return "/" + seg
		}
		return top.ptr + "/" + seg
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return sc, io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return sc, err
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				ptr := child()
				stack = append(stack, dupFrame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, ptr: ptr})
			case '[':
				ptr := child()
				stack = append(stack, dupFrame{kind: kindArray, ptr: ptr})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == kindObject && top.expectingKey {
					if _, ok := top.keys[v]; ok {
						sc.Duplicates = append(sc.Duplicates, DuplicateKey{Key: v, Path: top.ptr})
					} else {
						top.keys[v] = struct{}{}
						sc.Order[top.ptr] = append(sc.Order[top.ptr], v)
					}
					top.key = v
					top.expectingKey = false
					continue
				}
			}
			child()
		default:
			child()
		}
	}

	return sc, nil
}
