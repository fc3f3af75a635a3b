package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered supporter.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FavoriteClub string
	IsActive     bool
	IsBanned     bool
	CreatedAt    time.Time
}

// Community represents a persistent discussion room.
type Community struct {
	ID          int64
	Name        string
	Description string
	ClubName    string
	IsPublic    bool
	MemberCount int
	CreatedAt   time.Time
}

// MemberRole defines a member's role inside a community.
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// Membership links a user to a community.
type Membership struct {
	UserID      int64
	CommunityID int64
	Role        MemberRole
	JoinedAt    time.Time
}

// Message represents a persisted chat message. Seq is assigned on insert
// and is strictly increasing within a room.
type Message struct {
	ID          int64
	Room        string
	UserID      int64
	DisplayName string
	Body        string
	Seq         int64
	CreatedAt   time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with a hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash, favoriteClub string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// CommunityStore handles community and membership persistence.
type CommunityStore interface {
	// CreateCommunity creates a community and enrolls the creator as admin.
	CreateCommunity(ctx context.Context, name, description, clubName string, creatorID int64) (*Community, error)

	// GetCommunityByID retrieves a community by ID.
	GetCommunityByID(ctx context.Context, id int64) (*Community, error)

	// GetCommunityByName retrieves a community by its unique name.
	GetCommunityByName(ctx context.Context, name string) (*Community, error)

	// ListPublicCommunities lists all public communities.
	ListPublicCommunities(ctx context.Context) ([]*Community, error)

	// ListUserCommunities lists communities the user is a member of.
	ListUserCommunities(ctx context.Context, userID int64) ([]*Community, error)

	// AddMember enrolls a user; re-joining an occupied community fails.
	AddMember(ctx context.Context, userID, communityID int64, role MemberRole) error

	// RemoveMember removes a user from a community.
	RemoveMember(ctx context.Context, userID, communityID int64) error

	// IsMember checks whether the user belongs to the community.
	IsMember(ctx context.Context, userID, communityID int64) (bool, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message, assigning its id and per-room
	// sequence number, and returns the stored record.
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)

	// ListMessages returns up to limit messages for a room ordered by
	// sequence descending, skipping offset rows.
	ListMessages(ctx context.Context, room string, limit, offset int) ([]*Message, error)

	// CountMessages returns the number of messages stored for a room.
	CountMessages(ctx context.Context, room string) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	CommunityStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
