package mcpserver

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/tasklist/internal/repository"
	"github.com/yourorg/tasklist/internal/store"
)

// connect builds a tenant-bound server and a client session talking to it
// over in-memory transports.
func connect(t *testing.T, stores *store.Manager, tenantID string) *mcp.ClientSession {
	t.Helper()

	server := NewServer(stores, tenantID, slog.Default())
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(context.Background(), serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return clientSession
}

func newStores() *store.Manager {
	return store.NewManager(repository.NewMemoryBackend(), nil, slog.Default())
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestListToolsExposesMutations(t *testing.T) {
	session := connect(t, newStores(), "tenant-1")

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["createItem"])
	assert.True(t, names["updateItemStatus"])
	assert.True(t, names["deleteItem"])
}

func TestCreateItemReturnsNewState(t *testing.T) {
	session := connect(t, newStores(), "tenant-1")

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "createItem",
		Arguments: map[string]any{"text": "ship the release", "assignee": "alice"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := textOf(t, res)
	assert.Contains(t, text, "Success!")
	assert.Contains(t, text, "New state:")
	assert.Contains(t, text, "ship the release")
	assert.Contains(t, text, `"status": "backlog"`)
}

func TestCreateItemRejectsBlankTitle(t *testing.T) {
	session := connect(t, newStores(), "tenant-1")

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "createItem",
		Arguments: map[string]any{"text": "   "},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "title must not be empty")
}

func TestUpdateItemStatus(t *testing.T) {
	stores := newStores()
	items, err := stores.Scope("tenant-1").Add(context.Background(), "task", "")
	require.NoError(t, err)
	id := items[0].ID

	session := connect(t, stores, "tenant-1")

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "updateItemStatus",
		Arguments: map[string]any{"id": id, "status": "in-progress"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), `"status": "in-progress"`)

	// Unknown id is still a success: the unchanged state comes back.
	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "updateItemStatus",
		Arguments: map[string]any{"id": "no-such-id", "status": "done"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.NotContains(t, textOf(t, res), `"status": "done"`)

	// Invalid status value is an in-band tool error, never a protocol error.
	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "updateItemStatus",
		Arguments: map[string]any{"id": id, "status": "archived"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "unknown status")
}

func TestDeleteItem(t *testing.T) {
	stores := newStores()
	items, err := stores.Scope("tenant-1").Add(context.Background(), "task", "")
	require.NoError(t, err)
	id := items[0].ID

	session := connect(t, stores, "tenant-1")

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "deleteItem",
		Arguments: map[string]any{"id": id},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "New state:\n[]")

	remaining, err := stores.Scope("tenant-1").List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestReadItemResource(t *testing.T) {
	stores := newStores()
	items, err := stores.Scope("tenant-1").Add(context.Background(), "write docs", "bob")
	require.NoError(t, err)
	id := items[0].ID

	session := connect(t, stores, "tenant-1")

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "tasklist://items/" + id,
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "write docs")
	assert.Contains(t, res.Contents[0].Text, "bob")
}

func TestReadMissingResourceReturnsNotFoundPayload(t *testing.T) {
	session := connect(t, newStores(), "tenant-1")

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "tasklist://items/no-such-id",
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "NOT FOUND", res.Contents[0].Text)
}

func TestServerIsTenantBound(t *testing.T) {
	stores := newStores()
	_, err := stores.Scope("tenant-1").Add(context.Background(), "secret task", "")
	require.NoError(t, err)

	// A server bound to tenant-2 must not surface tenant-1 state.
	session := connect(t, stores, "tenant-2")

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "createItem",
		Arguments: map[string]any{"text": "tenant-2 task"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := textOf(t, res)
	assert.Contains(t, text, "tenant-2 task")
	assert.False(t, strings.Contains(text, "secret task"))
}
