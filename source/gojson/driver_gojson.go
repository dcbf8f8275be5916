// Package gojson decodes JSON documents into generic trees with goccy/go-json.
package gojson

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"
)

// Decode parses a single JSON document into map[string]any / []any trees.
// Numbers are kept as json.Number so integer bounds survive unchanged.
func Decode(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: unexpected data after top-level value")
	}
	return v, nil
}

// Convert re-encodes a generic subtree into dst, a typed Go value.
func Convert(v any, dst any) error {
	b, err := j.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode subtree: %w", err)
	}
	if err := j.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode subtree: %w", err)
	}
	return nil
}
