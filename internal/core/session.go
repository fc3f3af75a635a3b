package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is a connection's position in its lifecycle.
type State int

const (
	// StateAuthenticating accepts only authenticate; room operations are
	// refused until a credential resolves.
	StateAuthenticating State = iota
	// StateAuthenticated accepts join.
	StateAuthenticated
	// StateInRoom accepts send, leave and join (switching rooms).
	StateInRoom
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateInRoom:
		return "in_room"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns the lifecycle state machine for a single connection:
// authenticate, then join/leave/send, then close. Its methods are driven
// by the connection's read loop, so they execute strictly in order; only
// Close may arrive from another goroutine.
type Session struct {
	hub    *Hub
	client *Client

	mu    sync.Mutex
	state State
	room  string

	closeOnce sync.Once
}

// Client returns the connection handle whose Events channel the transport
// drains.
func (s *Session) Client() *Client {
	return s.client
}

// Authenticated reports whether a credential has resolved for this
// connection. Used by the transport to enforce the auth window.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated || s.state == StateInRoom
}

// Authenticate resolves a credential to an identity. On failure the
// session stays in the authenticating state and the client may retry.
func (s *Session) Authenticate(ctx context.Context, credential string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state != StateAuthenticating {
		s.mu.Unlock()
		s.emit(errorEvent(ScopeAuth, coreError(ErrCodeBadRequest, "already authenticated")))
		return
	}
	s.mu.Unlock()

	ident, err := s.hub.validator.Resolve(ctx, credential)
	if err != nil {
		s.hub.log.Warn().Err(err).Str("conn_id", s.client.ID).Msg("token rejected")
		s.emit(errorEvent(ScopeAuth, coreError(ErrCodeInvalidToken, "credential rejected")))
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.client.setIdentity(ident)
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.hub.log.Info().
		Str("conn_id", s.client.ID).
		Int64("user_id", ident.UserID).
		Str("user", ident.Name).
		Msg("connection authenticated")
	s.emit(statusEvent("", fmt.Sprintf("authenticated as %s", ident.Name)))
}

// Join moves the session into a room after the membership gate allows it.
// A connection occupies at most one room; joining while in another room
// leaves that room first. Denials leave the state untouched.
func (s *Session) Join(ctx context.Context, room string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state == StateInRoom && s.room == room {
		s.mu.Unlock()
		s.emit(statusEvent(room, fmt.Sprintf("already in %s", room)))
		return
	}
	s.mu.Unlock()

	ident := s.client.Identity()
	if err := s.hub.gate.Authorize(ctx, ident, room); err != nil {
		var ce *CoreError
		if !errors.As(err, &ce) {
			s.hub.log.Error().Err(err).Str("conn_id", s.client.ID).Str("room", room).Msg("membership authority failure")
			ce = coreError(ErrCodeInternal, "authorization failed")
		}
		s.emit(errorEvent(ScopeJoin, ce))
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state == StateInRoom {
		previous := s.room
		s.hub.registry.LeaveRoom(s.client.ID, previous)
		s.hub.broadcaster.Broadcast(previous, statusEvent(previous, fmt.Sprintf("%s left %s", ident.Name, previous)))
	}
	history, err := s.hub.joinWithHistory(ctx, s.client.ID, room)
	if err != nil {
		s.state = StateAuthenticated
		s.room = ""
		s.mu.Unlock()
		s.hub.log.Error().Err(err).Str("conn_id", s.client.ID).Str("room", room).Msg("history fetch failed on join")
		s.emit(errorEvent(ScopeJoin, coreError(ErrCodeInternal, "join failed")))
		return
	}
	s.state = StateInRoom
	s.room = room
	s.mu.Unlock()

	s.hub.log.Info().
		Str("conn_id", s.client.ID).
		Str("user", ident.Name).
		Str("room", room).
		Msg("joined room")
	s.emit(&Event{Kind: EventHistory, Room: room, Messages: history})
	s.hub.broadcaster.Broadcast(room, statusEvent(room, fmt.Sprintf("%s joined %s", ident.Name, room)))
}

// Leave removes the session from its current room. Leaving a room the
// session is not in is an error, not a disconnect.
func (s *Session) Leave(ctx context.Context, room string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state != StateInRoom || s.room != room {
		s.mu.Unlock()
		s.emit(errorEvent(ScopeLeave, coreError(ErrCodeNotInRoom, fmt.Sprintf("not in room %q", room))))
		return
	}
	s.hub.registry.LeaveRoom(s.client.ID, room)
	s.state = StateAuthenticated
	s.room = ""
	s.mu.Unlock()

	name := s.client.Identity().Name
	s.hub.log.Info().Str("conn_id", s.client.ID).Str("user", name).Str("room", room).Msg("left room")
	s.emit(statusEvent(room, fmt.Sprintf("you left %s", room)))
	s.hub.broadcaster.Broadcast(room, statusEvent(room, fmt.Sprintf("%s left %s", name, room)))
}

// Send appends a message to the current room's log and fans it out to
// everyone in the room, sender included.
func (s *Session) Send(ctx context.Context, body string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state != StateInRoom {
		s.mu.Unlock()
		s.emit(errorEvent(ScopeSend, coreError(ErrCodeNotInRoom, "join a room before sending")))
		return
	}
	room := s.room
	s.mu.Unlock()

	ident := s.client.Identity()
	_, err := s.hub.msgs.Append(ctx, room, ident.UserID, ident.Name, body, s.hub.broadcaster.Publish)
	if err != nil {
		var ce *CoreError
		if !errors.As(err, &ce) {
			s.hub.log.Error().Err(err).Str("conn_id", s.client.ID).Str("room", room).Msg("message append failed")
			ce = coreError(ErrCodeInternal, "message not delivered")
		}
		s.emit(errorEvent(ScopeSend, ce))
	}
}

// Close tears the session down. It runs exactly once, is safe to call
// from any state (including before authentication ever completed) and
// never fails.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		wasInRoom := s.state == StateInRoom
		room := s.room
		s.state = StateClosed
		s.room = ""
		s.mu.Unlock()

		s.hub.registry.Unregister(s.client.ID)

		if wasInRoom {
			if ident := s.client.Identity(); ident != nil {
				s.hub.broadcaster.Broadcast(room, statusEvent(room, fmt.Sprintf("%s left %s", ident.Name, room)))
			}
		}
		s.hub.log.Info().Str("conn_id", s.client.ID).Msg("session closed")
	})
}

func (s *Session) emit(event *Event) {
	s.client.Deliver(event)
}
