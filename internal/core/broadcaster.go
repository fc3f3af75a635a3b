package core

import "github.com/rs/zerolog"

// Broadcaster fans events out to every connection currently in a room.
type Broadcaster struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewBroadcaster constructs a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: logger}
}

// Publish delivers a chat message to everyone in its room, sender
// included. Delivery is best-effort per connection.
func (b *Broadcaster) Publish(msg *Message) {
	b.Broadcast(msg.Room, &Event{Kind: EventMessageReceived, Room: msg.Room, Message: msg})
}

// Broadcast delivers an arbitrary event to everyone in a room.
func (b *Broadcaster) Broadcast(room string, event *Event) {
	for _, c := range b.registry.MembersOf(room) {
		if !c.Deliver(event) {
			b.log.Warn().
				Str("conn_id", c.ID).
				Str("room", room).
				Msg("dropped event for slow or closed connection")
		}
	}
}
