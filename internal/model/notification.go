package model

import "time"

// Notification types written by the social and messaging flows.
// The column is free text; these are the values this server produces.
const (
	NotificationFriendRequest = "friend_request"
	NotificationFriendAccept  = "friend_accept"
	NotificationInfo          = "info"
)

// Notification is an alert for one user. Message is already rendered,
// e.g. "alice sent you a friend request!".
type Notification struct {
	ID        int64     `json:"id"         db:"id"`
	UserID    int64     `json:"user_id"    db:"user_id"`
	Type      string    `json:"type"       db:"type"`
	Message   string    `json:"message"    db:"message"`
	IsRead    bool      `json:"is_read"    db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
