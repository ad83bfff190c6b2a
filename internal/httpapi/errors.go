package httpapi

import (
	"encoding/json"
	"net/http"

	"paramexport/pkg/types"
)

// tooBusyError signals a full work-item queue (429).
type tooBusyError struct{ depth int }

func (e tooBusyError) Error() string { return "work item queue full" }

// IsTooBusy reports whether err indicates backpressure.
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}

// closedError is returned by Submit after the queue stopped accepting work.
type closedError struct{}

func (closedError) Error() string { return "work item queue closed" }

// IsClosed reports whether err indicates a stopped queue.
func IsClosed(err error) bool {
	_, ok := err.(closedError)
	return ok
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
