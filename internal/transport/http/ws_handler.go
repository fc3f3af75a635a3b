package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/core"
	"github.com/matchday/matchday-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core sessions.
type WSHandler struct {
	hub        *core.Hub
	authWindow time.Duration
	msgLimit   int
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. authWindow bounds the time
// a connection may stay unauthenticated; msgLimit caps messages per minute
// per connection (0 disables).
func NewWSHandler(hub *core.Hub, authWindow time.Duration, msgLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, authWindow: authWindow, msgLimit: msgLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	session := h.hub.NewSession(uuid.NewString())
	defer session.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	limiter := newRateLimiter(h.msgLimit)
	limiter.startReset(ctx.Done())

	go h.enforceAuthWindow(ctx, conn, session, cancel)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session.Client())
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// enforceAuthWindow closes the connection if no credential resolves within
// the configured window. The error frame is written directly because the
// session's event channel may never be drained again after the close.
func (h *WSHandler) enforceAuthWindow(ctx context.Context, conn *websocket.Conn, session *core.Session, cancel context.CancelFunc) {
	if h.authWindow <= 0 {
		return
	}
	timer := time.NewTimer(h.authWindow)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		if session.Authenticated() {
			return
		}
		h.log.Info().Str("conn_id", session.Client().ID).Msg("closing unauthenticated connection")
		_ = wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Scope: core.ScopeAuth, Reason: core.ErrCodeAuthTimeout, Msg: "authentication window expired"},
		})
		conn.Close(websocket.StatusPolicyViolation, core.ErrCodeAuthTimeout)
		cancel()
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		protoErr := dispatch(ctx, session, limiter, inbound)
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
