package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/tasklist/internal/domain"
)

// ItemsResponse is the envelope every successful item operation returns: the
// entire resulting collection, never a delta, so the caller's view is always
// authoritative.
type ItemsResponse struct {
	Items []domain.Item `json:"items"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeItems(w http.ResponseWriter, items []domain.Item) {
	if items == nil {
		items = []domain.Item{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ItemsResponse{Items: items})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeStoreError maps store failures onto HTTP statuses. Backend details
// are logged server-side only; the client sees a generic message.
func writeStoreError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	default:
		log.Error("store operation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
