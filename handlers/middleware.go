package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
)

type contextKey string

// RunIDKey holds the run id of the current request.
const RunIDKey contextKey = "runID"

// RunIDHeader carries a caller-supplied run id in and the effective one out.
const RunIDHeader = "X-Run-ID"

// GetRunID extracts the run id from the request context.
func GetRunID(r *http.Request) string {
	if val, ok := r.Context().Value(RunIDKey).(string); ok {
		return val
	}
	return ""
}

// RunIDMiddleware tags every request with a run id, taken from the X-Run-ID
// header when present and freshly generated otherwise. Snapshots stored
// during the request carry the same id.
func RunIDMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		runID := e.Request.Header.Get(RunIDHeader)
		if runID == "" || len(runID) > 64 {
			runID = uuid.NewString()
		}
		e.Response.Header().Set(RunIDHeader, runID)

		ctx := context.WithValue(e.Request.Context(), RunIDKey, runID)
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}

// runIDFor returns the request's run id, generating one for requests that
// did not pass through RunIDMiddleware.
func runIDFor(r *http.Request) string {
	return runIDFromContext(r.Context())
}
