package core

import "context"

// Identity is the authenticated user as seen by the core layer.
// It is resolved once per connection and immutable afterwards.
type Identity struct {
	UserID int64
	Name   string
}

// TokenValidator resolves a credential to a user identity.
// Implemented by the auth service; the core never inspects tokens itself.
type TokenValidator interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

// MembershipAuthority answers whether a user may participate in a room.
// Room ids are community names; persistence lives outside the core.
type MembershipAuthority interface {
	RoomExists(ctx context.Context, room string) (bool, error)
	IsMember(ctx context.Context, userID int64, room string) (bool, error)
}
