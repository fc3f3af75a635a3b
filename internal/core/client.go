package core

import "sync/atomic"

const eventBuffer = 32

// Client is one live connection as seen by the core layer.
// Identity stays nil until authentication completes.
type Client struct {
	ID     string
	Events chan *Event

	identity atomic.Pointer[Identity]
	closed   atomic.Bool
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, eventBuffer),
	}
}

// Identity returns the authenticated identity, or nil before authentication.
func (c *Client) Identity() *Identity {
	return c.identity.Load()
}

func (c *Client) setIdentity(ident *Identity) {
	c.identity.Store(ident)
}

// Deliver hands an event to the client's transport without blocking.
// Events for a torn-down or slow client are dropped so one broken
// connection never stalls delivery to the rest of a room.
func (c *Client) Deliver(event *Event) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}

func (c *Client) markClosed() {
	c.closed.Store(true)
}
