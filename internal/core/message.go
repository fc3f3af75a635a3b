package core

import "time"

// Message is the domain model for a chat message.
// Seq is assigned by the message log and is strictly increasing per room.
type Message struct {
	ID          int64
	Room        string
	UserID      int64
	DisplayName string
	Body        string
	Seq         int64
	CreatedAt   time.Time
}
