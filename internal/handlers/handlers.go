package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/utils"
)

// ownerID extracts the authenticated user's id from the request
// context. Collection data is always scoped to it.
func ownerID(r *http.Request) (string, error) {
	return utils.GetUserIDFromContext(r.Context())
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP status codes and writes a
// JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotAuthenticated),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrTokenRevoked):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry), errors.Is(err, common.ErrInUse):
		status = http.StatusConflict
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrImportFormat):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
