package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps storage and validation errors onto HTTP statuses
// and writes the error body. Unknown errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrCategoryInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrCategoryCycle):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrZeroAmount,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrInvalidPeriod,
		core.ErrInvalidMatch,
		core.ErrEmptyPattern,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
