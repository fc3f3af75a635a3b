package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/matchday/matchday-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeValidator struct {
	identities map[string]*Identity
}

func (v *fakeValidator) Resolve(_ context.Context, credential string) (*Identity, error) {
	ident, ok := v.identities[credential]
	if !ok {
		return nil, errors.New("credential rejected")
	}
	return ident, nil
}

type fakeAuthority struct {
	mu    sync.Mutex
	rooms map[string]map[int64]bool
}

func (a *fakeAuthority) RoomExists(_ context.Context, room string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.rooms[room]
	return ok, nil
}

func (a *fakeAuthority) IsMember(_ context.Context, userID int64, room string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rooms[room][userID], nil
}

// memStore is an in-memory store.MessageStore for core tests.
type memStore struct {
	mu     sync.Mutex
	byRoom map[string][]*store.Message
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{byRoom: make(map[string][]*store.Message)}
}

func (m *memStore) AppendMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *msg
	stored.ID = m.nextID
	stored.Seq = int64(len(m.byRoom[msg.Room]) + 1)
	m.byRoom[msg.Room] = append(m.byRoom[msg.Room], &stored)
	return &stored, nil
}

func (m *memStore) ListMessages(_ context.Context, room string, limit, offset int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.byRoom[room]
	out := make([]*store.Message, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memStore) CountMessages(_ context.Context, room string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byRoom[room])), nil
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// newTestHub builds a hub over in-memory fakes. alice and bob are
// members of liverpool-fans; nobody is a member of arsenal-fans.
func newTestHub(t *testing.T) (*Hub, *memStore) {
	t.Helper()

	validator := &fakeValidator{identities: map[string]*Identity{
		"tok-alice": {UserID: 1, Name: "alice"},
		"tok-bob":   {UserID: 2, Name: "bob"},
		"tok-carol": {UserID: 3, Name: "carol"},
	}}
	authority := &fakeAuthority{rooms: map[string]map[int64]bool{
		"liverpool-fans": {1: true, 2: true},
		"arsenal-fans":   {},
	}}
	st := newMemStore()
	return NewHub(validator, authority, NewMessageLog(st), testLogger()), st
}
