package model

import "time"

// Message is one entry of the append-only direct message log.
type Message struct {
	ID         int64     `json:"id"          db:"id"`
	SenderID   int64     `json:"sender_id"   db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Content    string    `json:"content"     db:"content"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}
