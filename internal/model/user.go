// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. The `json` tags control the
// API shape and the `db` tags tell sqlx which column fills which field.
package model

import "time"

// User is a registered account (a "node" in the UI).
//
// PasswordHash is the opaque bcrypt credential. It is tagged json:"-" so it
// can never leak through an encoder, no matter which handler returns a User.
// Accounts created through GitHub login have an empty hash and a GitHubID.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password"`
	Bio          string    `json:"bio"        db:"bio"`
	Skills       string    `json:"skills"     db:"skills"` // comma separated, stored as typed
	GitHubID     *int64    `json:"-"          db:"github_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserSummary is the public slice of a user returned by directory search.
type UserSummary struct {
	ID       int64  `json:"id"       db:"id"`
	Username string `json:"username" db:"username"`
	Skills   string `json:"skills"   db:"skills"`
}

// PublicProfile is what other users see on a profile page.
type PublicProfile struct {
	ID        int64     `json:"id"         db:"id"`
	Username  string    `json:"username"   db:"username"`
	Bio       string    `json:"bio"        db:"bio"`
	Skills    string    `json:"skills"     db:"skills"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Public strips the private fields of u.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		Skills:    u.Skills,
		CreatedAt: u.CreatedAt,
	}
}
