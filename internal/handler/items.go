package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/store"
)

// ListItemsHandler handles listing the authenticated tenant's items
type ListItemsHandler struct {
	stores *store.Manager
	logger *slog.Logger
}

// NewListItemsHandler creates a new list handler
func NewListItemsHandler(stores *store.Manager, logger *slog.Logger) *ListItemsHandler {
	return &ListItemsHandler{stores: stores, logger: logger}
}

// ServeHTTP handles GET /api/items requests
func (h *ListItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantFromContext(r.Context())
	if tenantID == "" {
		h.logger.Error("tenant ID not found in context")
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	items, err := h.stores.Scope(tenantID).List(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	writeItems(w, items)
}

// CreateItemRequest is the POST /api/items body.
type CreateItemRequest struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
}

// CreateItemHandler handles item creation
type CreateItemHandler struct {
	stores *store.Manager
	logger *slog.Logger
}

// NewCreateItemHandler creates a new create handler
func NewCreateItemHandler(stores *store.Manager, logger *slog.Logger) *CreateItemHandler {
	return &CreateItemHandler{stores: stores, logger: logger}
}

// ServeHTTP handles POST /api/items requests
func (h *CreateItemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantFromContext(r.Context())
	if tenantID == "" {
		h.logger.Error("tenant ID not found in context")
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode create request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	items, err := h.stores.Scope(tenantID).Add(r.Context(), req.Text, req.Assignee)
	if err != nil {
		writeStoreError(w, h.logger, err)
		return
	}

	h.logger.Info("item created",
		slog.String("tenant_id", tenantID),
		slog.Int("items", len(items)),
	)
	writeItems(w, items)
}
