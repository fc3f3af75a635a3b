package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matchday/matchday-server/internal/proto"
)

// ws_smoke authenticates, joins a room, sends one message and waits for
// it to come back. Exit code 0 means the round trip worked.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login")
	room := flag.String("room", "", "community room to join")
	body := flag.String("body", "hello from smoke test", "message body to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" || *room == "" {
		return errors.New("both -token and -room are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(kind string, data any) error {
		payload, marshalErr := json.Marshal(data)
		if marshalErr != nil {
			return fmt.Errorf("marshal %s: %w", kind, marshalErr)
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: payload}); writeErr != nil {
			return fmt.Errorf("send %s: %w", kind, writeErr)
		}
		return nil
	}

	if err := send(proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: *token}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeJoinRoom, proto.RoomData{Room: *room}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeSendMessage, proto.SendMessageData{Body: *body}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("received: type=%s\n", outbound.Type)

		switch outbound.Type {
		case proto.OutboundTypeMessageReceived:
			var msg proto.MessageData
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				fmt.Printf("raw data: %s\n", string(outbound.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("message: room=%s user=%s body=%q seq=%d\n", msg.Room, msg.DisplayName, msg.Body, msg.Sequence)
			if msg.Body == *body {
				return nil
			}
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				return fmt.Errorf("server error: scope=%s reason=%s", outbound.Error.Scope, outbound.Error.Reason)
			}
		default:
			// keep looping until our message comes back
		}
	}
}
