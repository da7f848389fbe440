package mcpserver

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/store"
)

// NewHTTPHandler serves MCP over streamable HTTP at the mounted path. The
// authorization gate runs before this handler, so every request arrives with
// a tenant already bound into its context; a fresh tenant-scoped server is
// built per request and discarded afterwards.
func NewHTTPHandler(stores *store.Manager, logger *slog.Logger) http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		tenantID := middleware.GetTenantFromContext(r.Context())
		if tenantID == "" {
			// The gate rejects unauthenticated requests before we get here;
			// returning nil makes the SDK answer with an error if it ever
			// does happen.
			return nil
		}
		return NewServer(stores, tenantID, logger)
	}, &mcp.StreamableHTTPOptions{Stateless: true})

	return mcpHandler
}
