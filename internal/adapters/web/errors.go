package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockledger/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses with
// stable machine-readable codes. Anything unrecognized is a storage failure.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	var ns *core.NoShelfAvailableError
	var is *core.InsufficientStockError
	var ic *core.InsufficientBatchCoverageError

	switch {
	case errors.As(err, &ve):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &ns):
		writeError(w, r, err.Error(), "NO_SHELF_AVAILABLE", http.StatusUnprocessableEntity)
	case errors.As(err, &is):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.As(err, &ic):
		writeError(w, r, err.Error(), "INSUFFICIENT_BATCH_COVERAGE", http.StatusConflict)
	case errors.Is(err, core.ErrConcurrencyConflict):
		writeError(w, r, err.Error(), "CONCURRENCY_CONFLICT", http.StatusConflict)
	default:
		writeError(w, r, "storage failure", "STORAGE_FAILURE", http.StatusInternalServerError)
	}
}
