package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeAuthenticate = "authenticate"
	InboundTypeJoinRoom     = "join_room"
	InboundTypeLeaveRoom    = "leave_room"
	InboundTypeSendMessage  = "send_message"

	OutboundTypeStatus          = "status"
	OutboundTypeMessageReceived = "message_received"
	OutboundTypeHistory         = "history"
	OutboundTypeError           = "error"
)

// AuthenticateData carries the client's credential. Protocol is optional;
// when present it must match ProtocolVersion.
type AuthenticateData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// RoomData names the room for join_room and leave_room requests.
type RoomData struct {
	Room string `json:"room"`
}

// SendMessageData is a chat message from the client for its current room.
type SendMessageData struct {
	Body string `json:"body"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// StatusData is informational text, e.g. "alice joined liverpool-fans".
type StatusData struct {
	Room string `json:"room,omitempty"`
	Text string `json:"text"`
}

// MessageData is the ordered chat payload.
type MessageData struct {
	ID          int64  `json:"id"`
	Room        string `json:"room"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Body        string `json:"body"`
	Sequence    int64  `json:"sequence"`
	TS          int64  `json:"ts"`
}

// HistoryData delivers recent messages upon joining a room, most recent first.
type HistoryData struct {
	Room     string        `json:"room"`
	Messages []MessageData `json:"messages"`
}

// Error describes a failed operation: which operation and why.
type Error struct {
	Scope  string `json:"scope"`
	Reason string `json:"reason"`
	Msg    string `json:"msg,omitempty"`
}
