package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	qschema "github.com/reoring/qschema"
	"github.com/reoring/qschema/i18n"
	"github.com/reoring/qschema/internal/config"
	"github.com/reoring/qschema/structure"
)

var errIssuesFound = errors.New("issues found")

type fileReport struct {
	File   string         `json:"file"`
	Valid  bool           `json:"valid"`
	Issues qschema.Issues `json:"issues"`
	Error  string         `json:"error,omitempty"`
}

func newValidateCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate one or more schema files (.json, .yaml, .yml)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
	cmd.Flags().Bool("strict-keys", cfg.StrictKeys, "Reject duplicate object keys")
	cmd.Flags().Bool("structure", cfg.StructureCheck, "Run the structural schema check before the rule checks")
	cmd.Flags().String("format", "text", "Output format (text, json)")
	cmd.Flags().String("lang", "en", "Message language (en, ja)")
	cmd.Flags().String("today", "", "Date used for \"now\" in offset dates (YYYY-MM-DD)")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict-keys")
	structural, _ := cmd.Flags().GetBool("structure")
	format, _ := cmd.Flags().GetString("format")
	today, _ := cmd.Flags().GetString("today")
	lang, _ := cmd.Flags().GetString("lang")
	tr := i18n.Match(lang)

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}
	var opts []qschema.RunOption
	if today != "" {
		t, err := time.Parse("2006-01-02", today)
		if err != nil {
			return fmt.Errorf("invalid --today: %w", err)
		}
		opts = append(opts, qschema.WithClock(func() time.Time { return t }))
	}

	log := newLogger(cmd)
	reports := make([]fileReport, 0, len(args))
	failed := false
	for _, path := range args {
		rep := validateFile(path, qschema.LoadOptions{RejectDuplicateKeys: strict}, structural, opts)
		rep.Issues = i18n.Localize(rep.Issues, tr)
		log.Debug("validated", "file", path, "issues", len(rep.Issues), "error", rep.Error)
		if !rep.Valid {
			failed = true
		}
		reports = append(reports, rep)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		b, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	} else {
		writeText(out, reports)
	}
	if failed {
		return errIssuesFound
	}
	return nil
}

func validateFile(path string, lo qschema.LoadOptions, structural bool, opts []qschema.RunOption) fileReport {
	rep := fileReport{File: path, Issues: qschema.Issues{}}
	doc, err := qschema.LoadFile(path, lo)
	if err != nil {
		if iss, ok := qschema.AsIssues(err); ok {
			rep.Issues = iss
			return rep
		}
		rep.Error = err.Error()
		return rep
	}
	if structural {
		iss, err := structure.Check(doc)
		if err != nil {
			rep.Error = err.Error()
			return rep
		}
		if len(iss) > 0 {
			rep.Issues = iss
			return rep
		}
	}
	iss, err := qschema.Validate(doc, opts...)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Issues = iss
	rep.Valid = len(iss) == 0
	return rep
}

func writeText(w io.Writer, reports []fileReport) {
	for _, rep := range reports {
		switch {
		case rep.Error != "":
			fmt.Fprintf(w, "%s: error: %s\n", rep.File, rep.Error)
		case rep.Valid:
			fmt.Fprintf(w, "%s: ok\n", rep.File)
		default:
			for _, is := range rep.Issues {
				loc := is.ID
				if is.Path != "" {
					loc = is.Path
				}
				fmt.Fprintf(w, "%s: %s [%s] %s\n", rep.File, is.Code, loc, is.Message)
			}
		}
	}
}
