// Package mcpserver exposes the item store over the Model Context Protocol:
// items as addressable resources, mutations as schema-validated tools. A
// server instance is built per authenticated request and bound to exactly one
// tenant scope; it is never shared across tenants.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/observability/metrics"
	"github.com/yourorg/tasklist/internal/store"
)

const (
	serverName    = "TaskList Service"
	serverVersion = "1.0.0"

	// itemURIPrefix is the resource URI scheme; one resource per item.
	itemURIPrefix = "tasklist://items/"
)

type createItemInput struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
}

type updateItemStatusInput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type deleteItemInput struct {
	ID string `json:"id"`
}

// NewServer builds a tenant-bound MCP server over the shared store manager.
func NewServer(stores *store.Manager, tenantID string, logger *slog.Logger) *mcp.Server {
	scoped := stores.Scope(tenantID)
	log := logger.With(slog.String("tenant_id", tenantID))

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	registerResources(server, scoped, log)
	registerTools(server, scoped, log)

	return server
}

// registerResources enumerates the tenant's items as resources and installs
// the per-id resolution template. A stale or deleted id resolves to a
// "NOT FOUND" payload, not a protocol error.
func registerResources(server *mcp.Server, scoped *store.Store, log *slog.Logger) {
	readItem := func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		id := strings.TrimPrefix(req.Params.URI, itemURIPrefix)

		items, err := scoped.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read items: %w", err)
		}

		text := "NOT FOUND"
		for _, it := range items {
			if it.ID == id {
				text = formatItem(it)
				break
			}
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     text,
			}},
		}, nil
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "Items",
		URITemplate: itemURIPrefix + "{id}",
		Description: "One item from the tenant's list",
		MIMEType:    "text/plain",
	}, readItem)

	// Enumerate current items so resources/list shows one entry per item.
	// Resolution always re-reads the store, so the listing being a snapshot
	// is harmless.
	items, err := scoped.List(context.Background())
	if err != nil {
		log.Warn("failed to enumerate item resources", slog.String("error", err.Error()))
		return
	}
	for _, it := range items {
		server.AddResource(&mcp.Resource{
			Name:     it.Title,
			URI:      itemURIPrefix + it.ID,
			MIMEType: "text/plain",
		}, readItem)
	}
}

func registerTools(server *mcp.Server, scoped *store.Store, log *slog.Logger) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "createItem",
		Description: "Add a new item to the list",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text":     {Type: "string", Description: "Item title"},
				"assignee": {Type: "string", Description: "Optional assignee"},
			},
			Required: []string{"text"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input createItemInput) (*mcp.CallToolResult, any, error) {
		items, err := scoped.Add(ctx, input.Text, input.Assignee)
		return toolResult("createItem", "Item added successfully", items, err, log)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "updateItemStatus",
		Description: "Move an item to a new workflow status (backlog, in-progress, review, done)",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {Type: "string", Description: "Item id"},
				// Not an enum on purpose: an unknown status must come back as
				// an in-band tool error, not a protocol-level schema failure.
				"status": {Type: "string", Description: "One of: backlog, in-progress, review, done"},
			},
			Required: []string{"id", "status"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input updateItemStatusInput) (*mcp.CallToolResult, any, error) {
		status, err := domain.ParseStatus(input.Status)
		if err != nil {
			metrics.ObserveToolCall("updateItemStatus", "invalid")
			return errorResult(err.Error()), nil, nil
		}
		items, err := scoped.UpdateStatus(ctx, input.ID, status)
		return toolResult("updateItemStatus", "Item status updated successfully", items, err, log)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteItem",
		Description: "Delete an item from the list",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {Type: "string", Description: "Item id"},
			},
			Required: []string{"id"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input deleteItemInput) (*mcp.CallToolResult, any, error) {
		items, err := scoped.Delete(ctx, input.ID)
		return toolResult("deleteItem", "Item deleted successfully", items, err, log)
	})
}

// toolResult shapes a store outcome the way every mutating tool reports it: a
// success line plus a pretty-printed snapshot of the resulting collection.
// Store failures become in-band tool errors with a generic message; details
// stay in the server log.
func toolResult(tool, description string, items []domain.Item, err error, log *slog.Logger) (*mcp.CallToolResult, any, error) {
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			metrics.ObserveToolCall(tool, "invalid")
			return errorResult(err.Error()), nil, nil
		}
		metrics.ObserveToolCall(tool, "error")
		log.Error("tool call failed", slog.String("tool", tool), slog.String("error", err.Error()))
		return errorResult("internal error"), nil, nil
	}

	metrics.ObserveToolCall(tool, "ok")
	snapshot, merr := json.MarshalIndent(items, "", "  ")
	if merr != nil {
		return errorResult("internal error"), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("Success! %s\n\nNew state:\n%s", description, snapshot),
		}},
	}, nil, nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}

func formatItem(it domain.Item) string {
	if it.Assignee != "" {
		return fmt.Sprintf("title: %s status: %s assignee: %s", it.Title, it.Status, it.Assignee)
	}
	return fmt.Sprintf("title: %s status: %s", it.Title, it.Status)
}
