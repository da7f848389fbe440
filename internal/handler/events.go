package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/tasklist/internal/events"
	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/store"
)

// ItemsStreamHandler pushes the authenticated tenant's full collection over a
// websocket: once on connect, then after every mutation. The stream carries
// the same authoritative whole-collection snapshots the REST surface returns.
type ItemsStreamHandler struct {
	stores         *store.Manager
	hub            *events.Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewItemsStreamHandler creates a new stream handler
func NewItemsStreamHandler(stores *store.Manager, hub *events.Hub, logger *slog.Logger, allowedOrigins []string) *ItemsStreamHandler {
	return &ItemsStreamHandler{
		stores:         stores,
		hub:            hub,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *ItemsStreamHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/items requests
func (h *ItemsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantFromContext(r.Context())
	if tenantID == "" {
		h.logger.Error("tenant ID not found in context")
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	snapshots, cancel := h.hub.Subscribe(tenantID)
	defer cancel()

	// Initial snapshot so the client never starts from a blank state.
	items, err := h.stores.Scope(tenantID).List(r.Context())
	if err != nil {
		h.logger.Error("failed to load initial snapshot", slog.String("error", err.Error()))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"error":"internal error"}`))
		return
	}
	if err := ws.WriteJSON(ItemsResponse{Items: items}); err != nil {
		return
	}

	// Reader goroutine: we never expect client messages, but reading is the
	// only way to notice a closed connection promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pings := time.NewTicker(30 * time.Second)
	defer pings.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-pings.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case snapshot := <-snapshots:
			if err := ws.WriteJSON(ItemsResponse{Items: snapshot}); err != nil {
				h.logger.Debug("stream ended",
					slog.String("tenant_id", tenantID),
					slog.String("reason", err.Error()),
				)
				return
			}
		}
	}
}
