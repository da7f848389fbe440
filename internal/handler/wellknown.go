package handler

import (
	"encoding/json"
	"net/http"
)

// ProtectedResourceMetadata is the OAuth protected-resource descriptor served
// under /.well-known/. Only the fields MCP clients consume are included; the
// authorization server it names is the same issuer the gate verifies against.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

// WellKnownHandler serves the static discovery documents.
type WellKnownHandler struct {
	issuer   string
	resource string
}

// NewWellKnownHandler creates a discovery metadata handler.
func NewWellKnownHandler(issuer, resource string) *WellKnownHandler {
	return &WellKnownHandler{issuer: issuer, resource: resource}
}

// ProtectedResource handles GET /.well-known/oauth-protected-resource
func (h *WellKnownHandler) ProtectedResource(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ProtectedResourceMetadata{
		Resource:               h.resource,
		AuthorizationServers:   []string{h.issuer},
		BearerMethodsSupported: []string{"header"},
	})
}
