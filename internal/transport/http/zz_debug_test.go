package http

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/auth"
	"github.com/matchday/matchday-server/internal/community"
	"github.com/matchday/matchday-server/internal/core"
	"github.com/matchday/matchday-server/internal/proto"
	"github.com/matchday/matchday-server/internal/store/sqlite"
)

// direct WSHandler, no gin
func TestZZDebugDirect(t *testing.T) {
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret: []byte("test-secret"), Issuer: "test", Audience: "test", TTL: time.Hour,
	})
	token, err := authService.Register(context.Background(), "alice", "a@example.com", "Password1", "Liverpool")
	if err != nil {
		t.Fatal(err)
	}
	logger := zerolog.New(os.Stderr)
	hub := core.NewHub(authService, community.NewService(st), core.NewMessageLog(st), &logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/", gin.WrapH(NewWSHandler(hub, 5*time.Second, 0, &logger)))
	ts := httptest.NewServer(router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	wsURL := strings.Replace(ts.URL, "http", "ws", 1)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAuthenticate,
		Data: []byte(fmt.Sprintf(`{"token":%q,"protocol":99}`, token))}); err != nil {
		t.Fatal(err)
	}
	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	fmt.Printf("got frame: %+v err=%+v\n", frame, frame.Error)
}
