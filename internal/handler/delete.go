package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/store"
)

// DeleteItemHandler handles item deletion
type DeleteItemHandler struct {
	stores *store.Manager
	logger *slog.Logger
}

// NewDeleteItemHandler creates a new delete handler
func NewDeleteItemHandler(stores *store.Manager, logger *slog.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{stores: stores, logger: logger}
}

// ServeHTTP handles DELETE /api/items/{id} requests. Deleting an absent id
// is idempotent and returns the unchanged collection.
func (h *DeleteItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.stores.Scope(tenantID).Delete(r.Context(), itemID)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	h.logger.Debug("item deleted",
		slog.String("tenant_id", tenantID),
		slog.String("item_id", itemID),
	)
	writeItems(w, items)
}
