package api

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	json "github.com/goccy/go-json"

	qschema "github.com/reoring/qschema"
	"github.com/reoring/qschema/i18n"
	qmw "github.com/reoring/qschema/middleware"
	"github.com/reoring/qschema/structure"
)

// handleValidate loads the questionnaire in the request body, optionally runs
// the structural check, then the rule checks. Rule violations are a 200 with
// valid=false; the document being unusable is a 4xx.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	opts := qmw.DefaultLoadOptions()
	opts.RejectDuplicateKeys = s.cfg.StrictKeys

	var doc *qschema.Document
	if isYAML(r.Header.Get("Content-Type")) {
		doc, err = qschema.LoadYAML(bytes.NewReader(body), opts)
	} else {
		doc, err = qschema.LoadJSON(bytes.NewReader(body), opts)
	}
	if err != nil {
		if iss, ok := qschema.AsIssues(err); ok {
			s.writeIssues(w, r, http.StatusUnprocessableEntity, iss)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid document: "+err.Error())
		return
	}

	if s.cfg.StructureCheck {
		iss, err := structure.Check(doc)
		if err != nil {
			s.log.Error("structure check failed", "error", err)
			writeError(w, http.StatusInternalServerError, "structure check unavailable")
			return
		}
		if len(iss) > 0 {
			s.writeIssues(w, r, http.StatusUnprocessableEntity, iss)
			return
		}
	}

	iss, err := qschema.Validate(doc, qschema.WithClock(s.now))
	if err != nil {
		if errors.Is(err, qschema.ErrMalformedDocument) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error("validate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	s.writeIssues(w, r, http.StatusOK, iss)
}

func (s *Server) writeIssues(w http.ResponseWriter, r *http.Request, status int, iss qschema.Issues) {
	qmw.Record(r.Context(), iss)
	iss = i18n.Localize(iss, i18n.Match(r.Header.Get("Accept-Language")))
	writeJSON(w, status, qmw.ErrorPayload(iss))
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
