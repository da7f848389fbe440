package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/store"
)

// UpdateStatusRequest is the POST /api/items/{id}/status body.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatusHandler handles item status changes
type UpdateStatusHandler struct {
	stores *store.Manager
	logger *slog.Logger
}

// NewUpdateStatusHandler creates a new status handler
func NewUpdateStatusHandler(stores *store.Manager, logger *slog.Logger) *UpdateStatusHandler {
	return &UpdateStatusHandler{stores: stores, logger: logger}
}

// ServeHTTP handles POST /api/items/{id}/status requests. An unknown id is
// not an error: the unchanged collection comes back with a 200.
func (h *UpdateStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantFromContext(r.Context())
	if tenantID == "" {
		h.logger.Error("tenant ID not found in context")
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	itemID := r.PathValue("id")
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "item id required")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode status request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.stores.Scope(tenantID).UpdateStatus(r.Context(), itemID, status)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	writeItems(w, items)
}
