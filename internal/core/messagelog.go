package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matchday/matchday-server/internal/store"
)

const (
	// DefaultHistoryLimit is used when a history request names no limit.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps a single history page.
	MaxHistoryLimit = 100
)

// MessageLog is the durable, per-room ordered record of chat messages.
// Appends to one room are serialized; rooms do not contend with each other.
type MessageLog struct {
	store store.MessageStore

	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

// NewMessageLog constructs a log backed by the given store.
func NewMessageLog(st store.MessageStore) *MessageLog {
	return &MessageLog{
		store: st,
		rooms: make(map[string]*sync.Mutex),
	}
}

func (l *MessageLog) roomLock(room string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.rooms[room]
	if !ok {
		lock = &sync.Mutex{}
		l.rooms[room] = lock
	}
	return lock
}

// Append durably records a message and returns it with its assigned
// sequence number. The optional deliver hook runs while the room is still
// serialized, so fan-out order always matches sequence order: a message is
// visible to History before any client sees it pushed.
func (l *MessageLog) Append(ctx context.Context, room string, userID int64, displayName, body string, deliver func(*Message)) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, coreError(ErrCodeEmptyBody, "message body is empty")
	}

	lock := l.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.store.AppendMessage(ctx, &store.Message{
		Room:        room,
		UserID:      userID,
		DisplayName: displayName,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	msg := messageFromStore(rec)
	if deliver != nil {
		deliver(msg)
	}
	return msg, nil
}

// History returns up to limit messages for a room, most recent first,
// skipping offset messages. Requests beyond the available range return an
// empty slice.
func (l *MessageLog) History(ctx context.Context, room string, limit, offset int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := l.store.ListMessages(ctx, room, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]*Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, messageFromStore(rec))
	}
	return msgs, nil
}

func messageFromStore(rec *store.Message) *Message {
	return &Message{
		ID:          rec.ID,
		Room:        rec.Room,
		UserID:      rec.UserID,
		DisplayName: rec.DisplayName,
		Body:        rec.Body,
		Seq:         rec.Seq,
		CreatedAt:   rec.CreatedAt,
	}
}
