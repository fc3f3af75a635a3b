package core

import "sync"

// Registry tracks which connection belongs to which room.
// The outer lock guards the connection and room maps; each room carries
// its own lock so joins and broadcasts in different rooms never contend.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connEntry
	rooms map[string]*roomSet
}

type connEntry struct {
	client *Client
	rooms  map[string]struct{}
}

type roomSet struct {
	mu      sync.RWMutex
	members map[string]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connEntry),
		rooms: make(map[string]*roomSet),
	}
}

// Register makes a connection known to the registry. Must be called once
// per connection before any room operation.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[c.ID]; exists {
		return
	}
	r.conns[c.ID] = &connEntry{client: c, rooms: make(map[string]struct{})}
}

// JoinRoom adds a connection to a room. Joining a room the connection is
// already in is a no-op; unknown connection ids are ignored.
func (r *Registry) JoinRoom(connID, room string) {
	r.mu.Lock()
	entry, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, joined := entry.rooms[room]; joined {
		r.mu.Unlock()
		return
	}
	entry.rooms[room] = struct{}{}
	set, ok := r.rooms[room]
	if !ok {
		set = &roomSet{members: make(map[string]*Client)}
		r.rooms[room] = set
	}
	set.mu.Lock()
	set.members[connID] = entry.client
	set.mu.Unlock()
	r.mu.Unlock()
}

// LeaveRoom removes a connection from a room. Unknown connections and
// rooms are ignored.
func (r *Registry) LeaveRoom(connID, room string) {
	r.mu.Lock()
	entry, ok := r.conns[connID]
	if ok {
		delete(entry.rooms, room)
	}
	set := r.rooms[room]
	if set != nil {
		set.mu.Lock()
		delete(set.members, connID)
		if len(set.members) == 0 {
			delete(r.rooms, room)
		}
		set.mu.Unlock()
	}
	r.mu.Unlock()
}

// Unregister removes a connection from every room it occupied and forgets
// it. Safe to call more than once; later calls are no-ops. Marking the
// client closed first keeps an in-flight broadcast from delivering to a
// connection mid-teardown.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	entry, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	entry.client.markClosed()
	for room := range entry.rooms {
		if set := r.rooms[room]; set != nil {
			set.mu.Lock()
			delete(set.members, connID)
			if len(set.members) == 0 {
				delete(r.rooms, room)
			}
			set.mu.Unlock()
		}
	}
	delete(r.conns, connID)
	r.mu.Unlock()
}

// MembersOf returns a snapshot of the connections currently in a room.
func (r *Registry) MembersOf(room string) []*Client {
	r.mu.RLock()
	set := r.rooms[room]
	r.mu.RUnlock()
	if set == nil {
		return nil
	}

	set.mu.RLock()
	defer set.mu.RUnlock()
	members := make([]*Client, 0, len(set.members))
	for _, c := range set.members {
		members = append(members, c)
	}
	return members
}

// RoomsOf returns the rooms a connection currently occupies.
func (r *Registry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[connID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(entry.rooms))
	for room := range entry.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
