package model

import "time"

// Snippet is a piece of code saved by its owner.
// Snippets are never edited in place: they are created and deleted only.
type Snippet struct {
	ID          int64     `json:"id"          db:"id"`
	UserID      int64     `json:"user_id"     db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Language    string    `json:"language"    db:"language"`
	Code        string    `json:"code"        db:"code"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}
