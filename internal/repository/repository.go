// Package repository declares the persistence contracts used by the service
// layer. The sqlstore subpackage implements them on top of database/sql.
package repository

import (
	"context"

	"github.com/sakif/devnode/internal/model"
)

// Store is the unit of work. Repositories handed out by a Store run their
// statements on whatever the Store is bound to: the connection pool, or a
// transaction when the Store was passed into an InTx callback.
type Store interface {
	Users() UserRepository
	Snippets() SnippetRepository
	Friendships() FriendshipRepository
	Messages() MessageRepository
	Notifications() NotificationRepository

	// InTx runs fn inside one transaction. If fn returns an error, or panics,
	// every statement it issued is rolled back. Calling InTx on a Store that
	// is already transactional reuses the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]model.UserSummary, error)
	Delete(ctx context.Context, id int64) error
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	ListByUser(ctx context.Context, userID int64) ([]model.Snippet, error)
	Delete(ctx context.Context, id, userID int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type FriendshipRepository interface {
	// Between returns the row linking a and b in either direction.
	Between(ctx context.Context, a, b int64) (*model.Friendship, error)
	Create(ctx context.Context, f *model.Friendship) error
	// Accept flips a pending sender->receiver row to accepted and reports
	// whether a row changed.
	Accept(ctx context.Context, senderID, receiverID int64) (bool, error)
	DeleteBetween(ctx context.Context, a, b int64) error
	ListForUser(ctx context.Context, userID int64) ([]model.Connection, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	Conversation(ctx context.Context, a, b int64) ([]model.Message, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	// MarkRead is a no-op when id does not belong to userID.
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
