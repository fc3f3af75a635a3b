package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventStatus carries informational text, e.g. "alice joined liverpool-fans".
	EventStatus EventKind = iota
	// EventMessageReceived delivers an ordered chat message.
	EventMessageReceived
	// EventHistory delivers recent messages to a client upon joining a room.
	EventHistory
	// EventError reports a failed operation with a scope and reason code.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Text     string
	Message  *Message
	Messages []*Message // EventHistory only
	Scope    string     // EventError only
	Error    *CoreError // EventError only
}

func statusEvent(room, text string) *Event {
	return &Event{Kind: EventStatus, Room: room, Text: text}
}

func errorEvent(scope string, err *CoreError) *Event {
	return &Event{Kind: EventError, Scope: scope, Error: err}
}
