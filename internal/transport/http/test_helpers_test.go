package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/auth"
	"github.com/matchday/matchday-server/internal/community"
	"github.com/matchday/matchday-server/internal/config"
	"github.com/matchday/matchday-server/internal/core"
	"github.com/matchday/matchday-server/internal/store"
	"github.com/matchday/matchday-server/internal/store/sqlite"
)

// testEnv bundles the wired server with handles the tests poke directly.
type testEnv struct {
	ts    *httptest.Server
	store store.Store
	auth  *auth.Service
	comms *community.Service
	msgs  *core.MessageLog
}

// startTestServer wires the full stack over an in-memory SQLite store.
func startTestServer(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	})
	communities := community.NewService(st)
	msgs := core.NewMessageLog(st)

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(authService, communities, msgs, &disabledLogger)

	server := NewServer(hub, authService, communities, msgs, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, comms: communities, msgs: msgs}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	cfg.AuthWindow = 5 * time.Second
	return cfg
}

// registerUser registers a user through the auth service and returns a token.
func (env *testEnv) registerUser(t *testing.T, username string) string {
	t.Helper()

	token, err := env.auth.Register(context.Background(), username, username+"@example.com", "Password1", "Liverpool")
	if err != nil {
		t.Fatalf("failed to register user %s: %v", username, err)
	}
	return token
}

// userID resolves a token back to its user id.
func (env *testEnv) userID(t *testing.T, token string) int64 {
	t.Helper()

	ident, err := env.auth.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("failed to resolve token: %v", err)
	}
	return ident.UserID
}

// createCommunity creates a community directly, returning its id. The
// creator is enrolled as admin.
func (env *testEnv) createCommunity(t *testing.T, name string, creatorToken string) int64 {
	t.Helper()

	c, err := env.comms.Create(context.Background(), name, "", "", env.userID(t, creatorToken))
	if err != nil {
		t.Fatalf("failed to create community %s: %v", name, err)
	}
	return c.ID
}

// doJSON performs an HTTP request with an optional bearer token and JSON body.
func (env *testEnv) doJSON(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, env.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, data
}

func requireStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()

	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func communityPath(id int64, suffix string) string {
	return fmt.Sprintf("/api/communities/%d%s", id, suffix)
}
