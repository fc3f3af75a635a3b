package http

import (
	"context"
	"encoding/json"

	"github.com/matchday/matchday-server/internal/core"
	"github.com/matchday/matchday-server/internal/proto"
)

// dispatch routes one inbound envelope to the session. A non-nil return is
// a request-shape error to report back; domain failures are emitted by the
// session itself as scoped error events.
func dispatch(ctx context.Context, session *core.Session, limiter *rateLimiter, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundTypeAuthenticate:
		var data proto.AuthenticateData
		if err := json.Unmarshal(inbound.Data, &data); err != nil || data.Token == "" {
			return &proto.Error{Scope: core.ScopeAuth, Reason: core.ErrCodeBadRequest, Msg: "token is required"}
		}
		if data.Protocol != 0 && data.Protocol != proto.ProtocolVersion {
			return &proto.Error{Scope: core.ScopeAuth, Reason: core.ErrCodeBadRequest, Msg: "unsupported protocol version"}
		}
		session.Authenticate(ctx, data.Token)
		return nil

	case proto.InboundTypeJoinRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil || data.Room == "" {
			return &proto.Error{Scope: core.ScopeJoin, Reason: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		session.Join(ctx, data.Room)
		return nil

	case proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil || data.Room == "" {
			return &proto.Error{Scope: core.ScopeLeave, Reason: core.ErrCodeBadRequest, Msg: "room is required"}
		}
		session.Leave(ctx, data.Room)
		return nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Scope: core.ScopeSend, Reason: core.ErrCodeBadRequest, Msg: "malformed message"}
		}
		if !limiter.allow() {
			return &proto.Error{Scope: core.ScopeSend, Reason: core.ErrCodeRateLimited, Msg: "message rate limit exceeded"}
		}
		session.Send(ctx, data.Body)
		return nil

	default:
		return &proto.Error{Scope: "request", Reason: core.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventStatus:
		return proto.Outbound{
			Type: proto.OutboundTypeStatus,
			Data: proto.StatusData{Room: event.Room, Text: event.Text},
		}
	case core.EventMessageReceived:
		return proto.Outbound{
			Type: proto.OutboundTypeMessageReceived,
			Data: messageData(event.Message),
		}
	case core.EventHistory:
		messages := make([]proto.MessageData, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageData(msg))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeHistory,
			Data: proto.HistoryData{Room: event.Room, Messages: messages},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Scope: event.Scope, Reason: "unknown"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Scope: event.Scope, Reason: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeStatus}
	}
}

func messageData(msg *core.Message) proto.MessageData {
	return proto.MessageData{
		ID:          msg.ID,
		Room:        msg.Room,
		UserID:      msg.UserID,
		DisplayName: msg.DisplayName,
		Body:        msg.Body,
		Sequence:    msg.Seq,
		TS:          msg.CreatedAt.Unix(),
	}
}
