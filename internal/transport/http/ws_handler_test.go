package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matchday/matchday-server/internal/core"
	"github.com/matchday/matchday-server/internal/proto"
)

type outboundFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("write %s frame: %v", msgType, err)
	}
}

// awaitFrame reads frames until one of the wanted type arrives. Frames of
// other types (status announcements, mostly) are skipped.
func awaitFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, wantType string) outboundFrame {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read while waiting for %s frame: %v", wantType, err)
		}
		if frame.Type == wantType {
			return frame
		}
	}
}

// connectAndJoin dials, authenticates with the token and joins the room,
// consuming the handshake frames on the way.
func connectAndJoin(t *testing.T, ctx context.Context, env *testEnv, token, room string) *websocket.Conn {
	t.Helper()

	conn := dialWS(t, ctx, env)
	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: token})
	awaitFrame(t, ctx, conn, proto.OutboundTypeStatus)
	sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: room})
	awaitFrame(t, ctx, conn, proto.OutboundTypeHistory)
	// The join announcement is broadcast to the room, joiner included.
	awaitFrame(t, ctx, conn, proto.OutboundTypeStatus)
	return conn
}

func TestWebSocketChatFlow(t *testing.T) {
	env := startTestServer(t, testConfig())
	aliceToken := env.registerUser(t, "alice")
	bobToken := env.registerUser(t, "bob")
	id := env.createCommunity(t, "liverpool-fans", aliceToken)

	resp, body := env.doJSON(t, http.MethodPost, communityPath(id, "/join"), bobToken, nil)
	requireStatus(t, resp, body, http.StatusOK)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := connectAndJoin(t, ctx, env, aliceToken, "liverpool-fans")
	bob := connectAndJoin(t, ctx, env, bobToken, "liverpool-fans")

	// alice sees bob arrive.
	joined := awaitFrame(t, ctx, alice, proto.OutboundTypeStatus)
	var status proto.StatusData
	if err := json.Unmarshal(joined.Data, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Text != "bob joined liverpool-fans" {
		t.Fatalf("unexpected status: %q", status.Text)
	}

	sendFrame(t, ctx, alice, proto.InboundTypeSendMessage, proto.SendMessageData{Body: "GOAL!!"})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		frame := awaitFrame(t, ctx, conn, proto.OutboundTypeMessageReceived)
		var msg proto.MessageData
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			t.Fatalf("unmarshal message for %s: %v", name, err)
		}
		if msg.Body != "GOAL!!" || msg.DisplayName != "alice" || msg.Room != "liverpool-fans" {
			t.Fatalf("unexpected message for %s: %+v", name, msg)
		}
		if msg.Sequence != 1 {
			t.Fatalf("unexpected sequence for %s: %d", name, msg.Sequence)
		}
	}

	// A late joiner finds the message in the history frame.
	carolToken := env.registerUser(t, "carol")
	resp, body = env.doJSON(t, http.MethodPost, communityPath(id, "/join"), carolToken, nil)
	requireStatus(t, resp, body, http.StatusOK)

	carol := dialWS(t, ctx, env)
	sendFrame(t, ctx, carol, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: carolToken})
	awaitFrame(t, ctx, carol, proto.OutboundTypeStatus)
	sendFrame(t, ctx, carol, proto.InboundTypeJoinRoom, proto.RoomData{Room: "liverpool-fans"})

	historyFrame := awaitFrame(t, ctx, carol, proto.OutboundTypeHistory)
	var history proto.HistoryData
	if err := json.Unmarshal(historyFrame.Data, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Messages) != 1 || history.Messages[0].Body != "GOAL!!" {
		t.Fatalf("unexpected history: %+v", history.Messages)
	}
}

func TestWebSocketJoinRequiresAuthentication(t *testing.T) {
	env := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "liverpool-fans"})

	frame := awaitFrame(t, ctx, conn, proto.OutboundTypeError)
	if frame.Error == nil || frame.Error.Scope != core.ScopeJoin || frame.Error.Reason != core.ErrCodeUnauthenticated {
		t.Fatalf("unexpected error frame: %+v", frame.Error)
	}
}

func TestWebSocketNonMemberDenied(t *testing.T) {
	env := startTestServer(t, testConfig())
	aliceToken := env.registerUser(t, "alice")
	carolToken := env.registerUser(t, "carol")
	env.createCommunity(t, "arsenal-fans", aliceToken)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: carolToken})
	awaitFrame(t, ctx, conn, proto.OutboundTypeStatus)
	sendFrame(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "arsenal-fans"})

	frame := awaitFrame(t, ctx, conn, proto.OutboundTypeError)
	if frame.Error == nil || frame.Error.Scope != core.ScopeJoin || frame.Error.Reason != core.ErrCodeNotAMember {
		t.Fatalf("unexpected error frame: %+v", frame.Error)
	}
}

func TestWebSocketInvalidToken(t *testing.T) {
	env := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)
	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: "forged"})

	frame := awaitFrame(t, ctx, conn, proto.OutboundTypeError)
	if frame.Error == nil || frame.Error.Scope != core.ScopeAuth || frame.Error.Reason != core.ErrCodeInvalidToken {
		t.Fatalf("unexpected error frame: %+v", frame.Error)
	}

	// The connection survives for a retry.
	token := env.registerUser(t, "alice")
	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: token})
	awaitFrame(t, ctx, conn, proto.OutboundTypeStatus)
}

func TestWebSocketAuthWindowCloses(t *testing.T) {
	cfg := testConfig()
	cfg.AuthWindow = 100 * time.Millisecond
	env := startTestServer(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env)

	frame := awaitFrame(t, ctx, conn, proto.OutboundTypeError)
	if frame.Error == nil || frame.Error.Reason != core.ErrCodeAuthTimeout {
		t.Fatalf("unexpected error frame: %+v", frame.Error)
	}

	var discard outboundFrame
	if err := wsjson.Read(ctx, conn, &discard); err == nil {
		t.Fatal("expected the connection to be closed after the auth window")
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MessageRateLimit = 2
	env := startTestServer(t, cfg)

	token := env.registerUser(t, "alice")
	env.createCommunity(t, "liverpool-fans", token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := connectAndJoin(t, ctx, env, token, "liverpool-fans")

	sendFrame(t, ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{Body: "one"})
	sendFrame(t, ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{Body: "two"})
	sendFrame(t, ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{Body: "three"})

	frame := awaitFrame(t, ctx, conn, proto.OutboundTypeError)
	if frame.Error == nil || frame.Error.Reason != core.ErrCodeRateLimited {
		t.Fatalf("unexpected error frame: %+v", frame.Error)
	}
}
