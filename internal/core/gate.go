package core

import (
	"context"
	"fmt"
)

// Gate authorizes room joins against the external membership authority.
type Gate struct {
	authority MembershipAuthority
}

// NewGate constructs a gate backed by the given authority.
func NewGate(authority MembershipAuthority) *Gate {
	return &Gate{authority: authority}
}

// Authorize checks whether ident may join room. A nil return means the
// join is allowed. Denials come back as *CoreError with one of the
// unauthenticated, room_not_found or not_a_member reason codes; anything
// else is an authority failure.
func (g *Gate) Authorize(ctx context.Context, ident *Identity, room string) error {
	if ident == nil {
		return coreError(ErrCodeUnauthenticated, "authenticate before joining a room")
	}

	exists, err := g.authority.RoomExists(ctx, room)
	if err != nil {
		return fmt.Errorf("room lookup: %w", err)
	}
	if !exists {
		return coreError(ErrCodeRoomNotFound, fmt.Sprintf("room %q does not exist", room))
	}

	member, err := g.authority.IsMember(ctx, ident.UserID, room)
	if err != nil {
		return fmt.Errorf("membership lookup: %w", err)
	}
	if !member {
		return coreError(ErrCodeNotAMember, fmt.Sprintf("not a member of %q", room))
	}
	return nil
}
