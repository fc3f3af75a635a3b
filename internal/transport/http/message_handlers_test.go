package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestHistoryEndpoint(t *testing.T) {
	env := startTestServer(t, testConfig())
	alice := env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	id := env.createCommunity(t, "liverpool-fans", alice)

	ctx := context.Background()
	aliceID := env.userID(t, alice)
	for _, body := range []string{"first", "second", "third"} {
		if _, err := env.msgs.Append(ctx, "liverpool-fans", aliceID, "alice", body, nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	resp, body := env.doJSON(t, http.MethodGet, communityPath(id, "/messages?limit=2"), alice, nil)
	requireStatus(t, resp, body, http.StatusOK)

	var page HistoryResponse
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if page.Room != "liverpool-fans" || len(page.Messages) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Messages[0].Body != "third" || page.Messages[1].Body != "second" {
		t.Fatalf("expected most recent first, got %+v", page.Messages)
	}

	resp, body = env.doJSON(t, http.MethodGet, communityPath(id, "/messages?limit=2&offset=2"), alice, nil)
	requireStatus(t, resp, body, http.StatusOK)
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].Body != "first" {
		t.Fatalf("unexpected second page: %+v", page.Messages)
	}

	// bob never joined, so the room's history is off limits.
	resp, body = env.doJSON(t, http.MethodGet, communityPath(id, "/messages"), bob, nil)
	requireStatus(t, resp, body, http.StatusForbidden)

	resp, body = env.doJSON(t, http.MethodGet, communityPath(9999, "/messages"), alice, nil)
	requireStatus(t, resp, body, http.StatusNotFound)
}
