package community

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matchday/matchday-server/internal/store"
)

var (
	// ErrNameTaken is returned when a community name already exists.
	ErrNameTaken = errors.New("community name already exists")
	// ErrInvalidName is returned when a community name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid community name")
	// ErrNotFound is returned when a community does not exist.
	ErrNotFound = errors.New("community not found")
	// ErrAlreadyMember is returned when joining a community twice.
	ErrAlreadyMember = errors.New("already a member of this community")
	// ErrNotMember is returned when leaving a community never joined.
	ErrNotMember = errors.New("not a member of this community")
)

// Service provides community and membership operations. It is also the
// membership authority the chat core consults before letting a connection
// into a room: room ids are community names.
type Service struct {
	store store.CommunityStore
}

// NewService creates a new community service.
func NewService(st store.CommunityStore) *Service {
	return &Service{store: st}
}

// Create registers a new community and makes the creator its admin.
func (s *Service) Create(ctx context.Context, name, description, clubName string, creatorID int64) (*store.Community, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	existing, err := s.store.GetCommunityByName(ctx, name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if existing != nil {
		return nil, ErrNameTaken
	}

	community, err := s.store.CreateCommunity(ctx, name, strings.TrimSpace(description), strings.TrimSpace(clubName), creatorID)
	if err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	return community, nil
}

// List returns all public communities.
func (s *Service) List(ctx context.Context) ([]*store.Community, error) {
	return s.store.ListPublicCommunities(ctx)
}

// ListForUser returns the communities a user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*store.Community, error) {
	return s.store.ListUserCommunities(ctx, userID)
}

// Get returns a community by id.
func (s *Service) Get(ctx context.Context, id int64) (*store.Community, error) {
	community, err := s.store.GetCommunityByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return community, err
}

// Join enrolls a user into a community.
func (s *Service) Join(ctx context.Context, userID, communityID int64) error {
	if _, err := s.Get(ctx, communityID); err != nil {
		return err
	}

	member, err := s.store.IsMember(ctx, userID, communityID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if member {
		return ErrAlreadyMember
	}

	if err := s.store.AddMember(ctx, userID, communityID, store.RoleMember); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// Leave removes a user from a community.
func (s *Service) Leave(ctx context.Context, userID, communityID int64) error {
	err := s.store.RemoveMember(ctx, userID, communityID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotMember
	}
	return err
}

// RoomExists reports whether a chat room (community name) exists.
// Part of the core's MembershipAuthority contract.
func (s *Service) RoomExists(ctx context.Context, room string) (bool, error) {
	_, err := s.store.GetCommunityByName(ctx, room)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsMember reports whether the user may participate in the room.
// Part of the core's MembershipAuthority contract.
func (s *Service) IsMember(ctx context.Context, userID int64, room string) (bool, error) {
	community, err := s.store.GetCommunityByName(ctx, room)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.store.IsMember(ctx, userID, community.ID)
}
