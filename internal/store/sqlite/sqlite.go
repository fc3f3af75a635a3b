package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matchday/matchday-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	favorite_club TEXT NOT NULL DEFAULT '',
	is_active     BOOLEAN NOT NULL DEFAULT 1,
	is_banned     BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS communities (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL UNIQUE,
	description  TEXT NOT NULL DEFAULT '',
	club_name    TEXT NOT NULL DEFAULT '',
	is_public    BOOLEAN NOT NULL DEFAULT 1,
	member_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS community_members (
	user_id      INTEGER NOT NULL,
	community_id INTEGER NOT NULL,
	role         TEXT NOT NULL DEFAULT 'member',
	joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, community_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (community_id) REFERENCES communities(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id      TEXT NOT NULL,
	user_id      INTEGER NOT NULL,
	display_name TEXT NOT NULL,
	body         TEXT NOT NULL,
	sequence     INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (room_id, sequence),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room_seq ON messages(room_id, sequence DESC);
CREATE INDEX IF NOT EXISTS idx_community_members_user ON community_members(user_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with a hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash, favoriteClub string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, favorite_club)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash, favoriteClub)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

const userColumns = `id, username, email, password_hash, favorite_club, is_active, is_banned, created_at`

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FavoriteClub,
		&user.IsActive,
		&user.IsBanned,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// ==== CommunityStore implementation ====

const communityColumns = `id, name, description, club_name, is_public, member_count, created_at`

func scanCommunity(scan func(dest ...any) error) (*store.Community, error) {
	var c store.Community
	err := scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.ClubName,
		&c.IsPublic,
		&c.MemberCount,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query community: %w", err)
	}
	return &c, nil
}

// CreateCommunity creates a community and enrolls the creator as admin.
func (s *SQLiteStore) CreateCommunity(ctx context.Context, name, description, clubName string, creatorID int64) (*store.Community, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO communities (name, description, club_name, member_count)
		VALUES (?, ?, ?, 1)
	`, name, description, clubName)
	if err != nil {
		return nil, fmt.Errorf("insert community: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO community_members (user_id, community_id, role)
		VALUES (?, ?, ?)
	`, creatorID, id, store.RoleAdmin); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetCommunityByID(ctx, id)
}

// GetCommunityByID retrieves a community by ID.
func (s *SQLiteStore) GetCommunityByID(ctx context.Context, id int64) (*store.Community, error) {
	query := `SELECT ` + communityColumns + ` FROM communities WHERE id = ?`
	return scanCommunity(s.db.QueryRowContext(ctx, query, id).Scan)
}

// GetCommunityByName retrieves a community by its unique name.
func (s *SQLiteStore) GetCommunityByName(ctx context.Context, name string) (*store.Community, error) {
	query := `SELECT ` + communityColumns + ` FROM communities WHERE name = ?`
	return scanCommunity(s.db.QueryRowContext(ctx, query, name).Scan)
}

// ListPublicCommunities lists all public communities.
func (s *SQLiteStore) ListPublicCommunities(ctx context.Context) ([]*store.Community, error) {
	query := `SELECT ` + communityColumns + ` FROM communities WHERE is_public = 1 ORDER BY name`
	return s.listCommunities(ctx, query)
}

// ListUserCommunities lists communities the user is a member of.
func (s *SQLiteStore) ListUserCommunities(ctx context.Context, userID int64) ([]*store.Community, error) {
	query := `
		SELECT c.id, c.name, c.description, c.club_name, c.is_public, c.member_count, c.created_at
		FROM communities c
		JOIN community_members m ON m.community_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.name
	`
	return s.listCommunities(ctx, query, userID)
}

func (s *SQLiteStore) listCommunities(ctx context.Context, query string, args ...any) ([]*store.Community, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query communities: %w", err)
	}
	defer rows.Close()

	communities := make([]*store.Community, 0)
	for rows.Next() {
		c, err := scanCommunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// AddMember enrolls a user and maintains the community's member count.
func (s *SQLiteStore) AddMember(ctx context.Context, userID, communityID int64, role store.MemberRole) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO community_members (user_id, community_id, role)
		VALUES (?, ?, ?)
	`, userID, communityID, role); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE communities SET member_count = member_count + 1 WHERE id = ?
	`, communityID); err != nil {
		return fmt.Errorf("bump member count: %w", err)
	}

	return tx.Commit()
}

// RemoveMember removes a user and maintains the community's member count.
func (s *SQLiteStore) RemoveMember(ctx context.Context, userID, communityID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM community_members WHERE user_id = ? AND community_id = ?
	`, userID, communityID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE communities SET member_count = member_count - 1 WHERE id = ? AND member_count > 0
	`, communityID); err != nil {
		return fmt.Errorf("drop member count: %w", err)
	}

	return tx.Commit()
}

// IsMember checks whether the user belongs to the community.
func (s *SQLiteStore) IsMember(ctx context.Context, userID, communityID int64) (bool, error) {
	query := `SELECT 1 FROM community_members WHERE user_id = ? AND community_id = ?`
	var one int
	err := s.db.QueryRowContext(ctx, query, userID, communityID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message, assigning its id and per-room sequence
// number in one statement so the room order survives restarts.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	query := `
		INSERT INTO messages (room_id, user_id, display_name, body, sequence, created_at)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(sequence), 0) + 1 FROM messages WHERE room_id = ?), ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.Room, msg.UserID, msg.DisplayName, msg.Body, msg.Room, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getMessage(ctx, id)
}

const messageColumns = `id, room_id, user_id, display_name, body, sequence, created_at`

func scanMessage(scan func(dest ...any) error) (*store.Message, error) {
	var m store.Message
	err := scan(
		&m.ID,
		&m.Room,
		&m.UserID,
		&m.DisplayName,
		&m.Body,
		&m.Seq,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStore) getMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	return scanMessage(s.db.QueryRowContext(ctx, query, id).Scan)
}

// ListMessages returns up to limit messages for a room ordered by sequence
// descending, skipping offset rows.
func (s *SQLiteStore) ListMessages(ctx context.Context, room string, limit, offset int) ([]*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE room_id = ?
		ORDER BY sequence DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the number of messages stored for a room.
func (s *SQLiteStore) CountMessages(ctx context.Context, room string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE room_id = ?`, room).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
