package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	qschema "github.com/reoring/qschema"
)

// DefaultLoadOptions returns the loading options used at HTTP boundaries.
// Duplicate keys are errors.
func DefaultLoadOptions() qschema.LoadOptions {
	return qschema.LoadOptions{RejectDuplicateKeys: true}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues qschema.Issues) map[string]any {
	if issues == nil {
		issues = qschema.Issues{}
	}
	return map[string]any{"valid": len(issues) == 0, "issues": issues}
}

// RequestLogger logs each request with its status and duration. When the
// handler recorded issues through a *Recorder, their count is logged too.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &Recorder{}
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), ctxKeyRecorder{}, rec)))
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if rec.set {
				attrs = append(attrs, "issues", len(rec.issues))
			}
			log.Info("request", attrs...)
		})
	}
}

type ctxKeyRecorder struct{}

// Recorder collects the issues a handler produced for the request logger.
type Recorder struct {
	issues qschema.Issues
	set    bool
}

// Record stores iss on the recorder installed by RequestLogger, if any.
func Record(ctx context.Context, iss qschema.Issues) {
	if rec, ok := ctx.Value(ctxKeyRecorder{}).(*Recorder); ok {
		rec.issues = iss
		rec.set = true
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
