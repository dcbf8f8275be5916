// Package structure checks that a questionnaire document has the shape the
// index expects (sections, groups, blocks, questions and answers with ids)
// before any cross-reference validation runs.
package structure

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	qschema "github.com/reoring/qschema"
	"github.com/reoring/qschema/internal/tree"
)

//go:embed questionnaire.schema.json
var schemaJSON []byte

const schemaURL = "qschema://questionnaire.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse structure schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Check validates doc against the structural schema. Violations come back as
// Issues with CodeStructure; err is reserved for failures of the checker itself.
func Check(doc *qschema.Document) (qschema.Issues, error) {
	sch, err := schema()
	if err != nil {
		return nil, err
	}
	verr := sch.Validate(doc.Raw)
	if verr == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(verr, &ve) {
		return nil, fmt.Errorf("structure check: %w", verr)
	}
	p := message.NewPrinter(language.English)
	var iss qschema.Issues
	collect(ve, p, &iss)
	return iss, nil
}

// collect flattens the error tree into its leaves.
func collect(ve *jsonschema.ValidationError, p *message.Printer, out *qschema.Issues) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			collect(c, p, out)
		}
		return
	}
	*out = qschema.AppendIssues(*out, qschema.Issue{
		Code:    qschema.CodeStructure,
		Path:    tree.PointerFrom(ve.InstanceLocation),
		Message: ve.ErrorKind.LocalizedString(p),
	})
}
