package test

import (
	"net/http"
	"testing"
)

func TestHealthAndReadiness(t *testing.T) {
	server := NewTestServer(t)

	status, body := server.GetJSON(t, "/healthz", "")
	if status != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("healthz: expected ok, got %v", body["status"])
	}

	status, body = server.GetJSON(t, "/readyz", "")
	if status != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", status)
	}
	if body["status"] != "ready" {
		t.Errorf("readyz: expected ready, got %v", body["status"])
	}
}

func TestProtectedResourceMetadataIsPublic(t *testing.T) {
	server := NewTestServer(t)

	status, body := server.GetJSON(t, "/.well-known/oauth-protected-resource", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["resource"] == "" {
		t.Errorf("expected resource field, got %v", body)
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	server := NewTestServer(t)

	status, body := server.GetJSON(t, "/api/items", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if body["error"] != "unauthenticated" {
		t.Errorf("expected generic error body, got %v", body)
	}

	status, _ = server.PostJSON(t, "/api/items", "garbage-token", map[string]string{"text": "x"})
	if status != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", status)
	}
}

// TestTenantScenario exercises the end-to-end flow: two tenants operate
// through the same server and never observe each other's state.
func TestTenantScenario(t *testing.T) {
	server := NewTestServer(t)

	t1 := server.RegisterAndLogin(t, "alice@example.com", "alice", "tenant-1")
	t2 := server.RegisterAndLogin(t, "bob@example.com", "bob", "tenant-2")

	// T1 creates two items.
	status, body := server.PostJSON(t, "/api/items", t1, map[string]string{"text": "first"})
	if status != http.StatusOK {
		t.Fatalf("create: expected 200, got %d (%v)", status, body)
	}
	status, body = server.PostJSON(t, "/api/items", t1, map[string]string{"text": "second", "assignee": "alice"})
	if status != http.StatusOK {
		t.Fatalf("create: expected 200, got %d", status)
	}
	ids := ItemIDs(body)
	if len(ids) != 2 {
		t.Fatalf("expected full collection of 2, got %v", ids)
	}

	// T2 starts empty.
	status, body = server.GetJSON(t, "/api/items", t2)
	if status != http.StatusOK {
		t.Fatalf("t2 list: expected 200, got %d", status)
	}
	if got := ItemIDs(body); len(got) != 0 {
		t.Fatalf("tenant-2 sees tenant-1 items: %v", got)
	}

	// T1 moves an item through the workflow.
	status, body = server.PostJSON(t, "/api/items/"+ids[0]+"/status", t1, map[string]string{"status": "in-progress"})
	if status != http.StatusOK {
		t.Fatalf("status update: expected 200, got %d (%v)", status, body)
	}

	// T2 deleting a T1 id is a no-op inside tenant-2's scope.
	status, _ = server.Delete(t, "/api/items/"+ids[0], t2)
	if status != http.StatusOK {
		t.Fatalf("cross-tenant delete: expected 200 (scoped no-op), got %d", status)
	}
	_, body = server.GetJSON(t, "/api/items", t1)
	if got := ItemIDs(body); len(got) != 2 {
		t.Fatalf("cross-tenant delete leaked into tenant-1: %v", got)
	}

	// T1 deletes one item for real.
	status, body = server.Delete(t, "/api/items/"+ids[0], t1)
	if status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	if got := ItemIDs(body); len(got) != 1 {
		t.Fatalf("expected 1 item after delete, got %v", got)
	}
}

func TestSessionCookieCredentialWorks(t *testing.T) {
	server := NewTestServer(t)
	token := server.RegisterAndLogin(t, "carol@example.com", "carol", "tenant-3")

	req, _ := http.NewRequest(http.MethodGet, server.URL()+"/api/items", nil)
	req.AddCookie(&http.Cookie{Name: "session_jwt", Value: token})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("cookie credential: expected 200, got %d", resp.StatusCode)
	}
}

func TestInvalidStatusRejected(t *testing.T) {
	server := NewTestServer(t)
	token := server.RegisterAndLogin(t, "dave@example.com", "dave", "tenant-4")

	_, body := server.PostJSON(t, "/api/items", token, map[string]string{"text": "task"})
	ids := ItemIDs(body)
	if len(ids) != 1 {
		t.Fatalf("expected 1 item, got %v", ids)
	}

	status, _ := server.PostJSON(t, "/api/items/"+ids[0]+"/status", token, map[string]string{"status": "shipped"})
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", status)
	}
}

func TestChangePasswordRequiresSession(t *testing.T) {
	server := NewTestServer(t)

	status, _ := server.PostJSON(t, "/api/auth/change-password", "", map[string]string{
		"oldPassword": "x", "newPassword": "y12345678",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without session, got %d", status)
	}

	token := server.RegisterAndLogin(t, "erin@example.com", "erin", "tenant-5")
	status, _ = server.PostJSON(t, "/api/auth/change-password", token, map[string]string{
		"oldPassword": "Password123", "newPassword": "NewPassword123",
	})
	if status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
}
