package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matchday/matchday-server/internal/proto"
)

// ws_chat is a terminal chat client. Obtain a token via POST /api/login
// first, then join the room named by -room and type messages.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login")
	room := flag.String("room", "", "community room to join")
	flag.Parse()

	if *token == "" || *room == "" {
		return errors.New("both -token and -room are required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: *token}); err != nil {
		return err
	}
	if err := send(ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s, room %s\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, kind string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.OutboundTypeMessageReceived:
			var msg proto.MessageData
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", msg.Room, msg.DisplayName, msg.Body)
		case proto.OutboundTypeStatus:
			var status proto.StatusData
			if err := json.Unmarshal(outbound.Data, &status); err != nil {
				log.Printf("unmarshal status: %v", err)
				continue
			}
			fmt.Printf("* %s\n", status.Text)
		case proto.OutboundTypeHistory:
			var history proto.HistoryData
			if err := json.Unmarshal(outbound.Data, &history); err != nil {
				log.Printf("unmarshal history: %v", err)
				continue
			}
			// History arrives most recent first; replay it oldest first.
			for i := len(history.Messages) - 1; i >= 0; i-- {
				msg := history.Messages[i]
				fmt.Printf("[%s] %s: %s\n", msg.Room, msg.DisplayName, msg.Body)
			}
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("! %s failed: %s\n", outbound.Error.Scope, outbound.Error.Reason)
			}
		default:
			fmt.Printf("type=%s data=%s\n", outbound.Type, string(outbound.Data))
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			body := strings.TrimSpace(line)
			if body == "" {
				continue
			}
			if err := send(ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{Body: body}); err != nil {
				log.Printf("%v", err)
				return
			}
		}
	}
}
