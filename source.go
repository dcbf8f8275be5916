package qschema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	eng "github.com/reoring/qschema/internal/engine"
	"github.com/reoring/qschema/internal/tree"
	"github.com/reoring/qschema/source/gojson"
	yamlsrc "github.com/reoring/qschema/source/yaml"
)

// Document is a loaded questionnaire schema. Raw holds the generic tree
// (map[string]any, []any, string, bool, json.Number, nil) and is never
// mutated after loading.
type Document struct {
	Raw any

	// order is the key order of the source text; documents built with
	// NewDocument have none and are walked in sorted key order.
	order tree.KeyOrder
}

// NewDocument wraps an already decoded tree.
func NewDocument(raw any) *Document { return &Document{Raw: raw} }

// LoadOptions controls document loading.
type LoadOptions struct {
	// RejectDuplicateKeys fails loading when an object repeats a key.
	RejectDuplicateKeys bool
}

// LoadJSON reads a JSON questionnaire schema. With RejectDuplicateKeys the
// returned error is Issues with one CodeDuplicateKey entry per repeated key.
func LoadJSON(r io.Reader, opts LoadOptions) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	raw, err := gojson.Decode(data)
	if err != nil {
		return nil, err
	}
	sc, err := eng.ScanJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if opts.RejectDuplicateKeys {
		if dups := sc.Duplicates; len(dups) > 0 {
			var iss Issues
			for _, d := range dups {
				iss = AppendIssues(iss, Issue{
					Code:    CodeDuplicateKey,
					Path:    d.Path,
					Message: fmt.Sprintf("key '%s' duplicated", d.Key),
					Params:  map[string]any{"key": d.Key},
				})
			}
			return nil, iss
		}
	}
	return &Document{Raw: raw, order: sc.Order}, nil
}

// LoadYAML reads a YAML questionnaire schema into the same tree shape LoadJSON produces.
func LoadYAML(r io.Reader, opts LoadOptions) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	raw, order, err := yamlsrc.Decode(data, opts.RejectDuplicateKeys)
	if err != nil {
		var dup *yamlsrc.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, Issues{{
				Code:    CodeDuplicateKey,
				Message: dup.Error(),
				Params:  map[string]any{"key": dup.Key, "line": dup.Line, "column": dup.Col},
			}}
		}
		return nil, err
	}
	return &Document{Raw: raw, order: order}, nil
}

// LoadFile loads a schema file, choosing YAML for .yaml/.yml and JSON otherwise.
func LoadFile(path string, opts LoadOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f, opts)
	default:
		return LoadJSON(f, opts)
	}
}

// decodeInto converts a subtree of the document into a typed entity.
func decodeInto(v any, dst any) error {
	return gojson.Convert(v, dst)
}
