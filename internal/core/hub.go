package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub wires the session registry, membership gate, message log and
// broadcaster together and hands out per-connection sessions.
type Hub struct {
	validator   TokenValidator
	gate        *Gate
	registry    *Registry
	msgs        *MessageLog
	broadcaster *Broadcaster
	log         *zerolog.Logger
}

// NewHub creates a new chat hub instance.
func NewHub(validator TokenValidator, authority MembershipAuthority, msgs *MessageLog, logger *zerolog.Logger) *Hub {
	registry := NewRegistry()
	return &Hub{
		validator:   validator,
		gate:        NewGate(authority),
		registry:    registry,
		msgs:        msgs,
		broadcaster: NewBroadcaster(registry, logger),
		log:         logger,
	}
}

// NewSession registers a fresh connection and returns its session.
func (h *Hub) NewSession(connID string) *Session {
	client := NewClient(connID)
	h.registry.Register(client)
	return &Session{
		hub:    h,
		client: client,
		state:  StateAuthenticating,
	}
}

// Registry exposes the session registry, mainly for tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// joinWithHistory fetches the room's recent history and adds the
// connection to the room under the room's serialization point, so no
// append can land between the snapshot and the membership change. The
// joiner therefore never misses a message and never sees one twice.
func (h *Hub) joinWithHistory(ctx context.Context, connID, room string) ([]*Message, error) {
	lock := h.msgs.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	history, err := h.msgs.History(ctx, room, DefaultHistoryLimit, 0)
	if err != nil {
		return nil, err
	}
	h.registry.JoinRoom(connID, room)
	return history, nil
}
