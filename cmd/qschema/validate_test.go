package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qschema "github.com/reoring/qschema"
)

const fixture = "../../testdata/questionnaire.json"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValidate_JSONReport(t *testing.T) {
	out, err := run(t, "validate", "--format", "json", "--today", "2024-01-15", fixture)
	require.ErrorIs(t, err, errIssuesFound)

	var reports []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports), out)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Valid)
	assert.Equal(t, []string{qschema.CodeReferencedDecimalPlaces, qschema.CodeInvalidOffsetDate}, reports[0].Issues.Codes())
}

func TestValidate_TextOK(t *testing.T) {
	p := writeFile(t, "ok.yaml", `sections:
  - id: s
    groups:
      - id: g
        blocks:
          - id: b
            type: Question
            question:
              id: q
              answers:
                - id: a
                  type: Number
`)
	out, err := run(t, "validate", "--structure", p)
	require.NoError(t, err)
	assert.Equal(t, p+": ok\n", out)
}

func TestValidate_TextIssues(t *testing.T) {
	out, err := run(t, "validate", fixture)
	require.ErrorIs(t, err, errIssuesFound)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "referenced_decimal_places [spend]")
	assert.Contains(t, lines[1], "invalid_offset_date [dob]")
}

func TestValidate_Japanese(t *testing.T) {
	out, err := run(t, "validate", "--lang", "ja", fixture)
	require.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out, "最小日付が最大日付以降になっています")
}

func TestValidate_DuplicateKeysAndStrictFlag(t *testing.T) {
	p := writeFile(t, "dup.json", `{"sections":[{"id":"s","id":"s","groups":[]}]}`)

	out, err := run(t, "validate", p)
	require.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out, "duplicate_key [/sections/0]")

	_, err = run(t, "validate", "--strict-keys=false", "--structure=false", p)
	require.NoError(t, err)
}

func TestValidate_Errors(t *testing.T) {
	_, err := run(t, "validate", "--format", "xml", fixture)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errIssuesFound)

	_, err = run(t, "validate", "--today", "soon", fixture)
	require.Error(t, err)

	out, err := run(t, "validate", filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, errIssuesFound)
	assert.Contains(t, out, ": error: ")

	_, err = run(t, "validate")
	require.Error(t, err)
}
