// Package qschema validates questionnaire schema documents.
//
// A document is a JSON (or YAML) tree of sections, groups, blocks, questions
// and answers. The package provides:
//
// - Loading with optional duplicate-key rejection (LoadJSON, LoadYAML, LoadFile)
// - An Index over the tree with ids, answers and their section/group/block context
// - Per-answer rule checks (AnswerValidator) and numeric range resolution (RangeTable)
// - A stable error model via Issues (code, message, id, JSON Pointer, params)
//
// Design policy:
// - Keep only public APIs in the root package; put tree walking and date math under internal/.
// - The structural JSON Schema pass lives in structure/, the CLI under cmd/qschema.
// - Checks never stop early: every finding is reported, in document order.
//
// Typical usage:
//
//	doc, err := qschema.LoadFile("schema.json", qschema.LoadOptions{RejectDuplicateKeys: true})
//	if err != nil {
//		return err
//	}
//	iss, err := qschema.Validate(doc)
//	for _, is := range iss {
//		fmt.Println(is.Code, is.ID, is.Message)
//	}
package qschema
