package model

import "time"

// FriendshipStatus is the lifecycle state of a friendship row.
// There is no "rejected" state: declining a request deletes the row.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is the single row linking two users. SenderID is whoever asked;
// once accepted the relationship is symmetric, but the ids stay as created.
type Friendship struct {
	ID         int64            `json:"id"          db:"id"`
	SenderID   int64            `json:"sender_id"   db:"sender_id"`
	ReceiverID int64            `json:"receiver_id" db:"receiver_id"`
	Status     FriendshipStatus `json:"status"      db:"status"`
	CreatedAt  time.Time        `json:"created_at"  db:"created_at"`
}

// ConnectionKind is how a friendship row looks from one user's side.
type ConnectionKind string

const (
	ConnectionAccepted ConnectionKind = "accepted"
	ConnectionIncoming ConnectionKind = "incoming" // pending, the other party sent it
	ConnectionOutgoing ConnectionKind = "outgoing" // pending, the viewer sent it
)

// Connection is one row of a user's network: the other party's public fields
// plus the friendship's status and original direction.
type Connection struct {
	ID         int64            `json:"id"          db:"id"`
	Username   string           `json:"username"    db:"username"`
	Skills     string           `json:"skills"      db:"skills"`
	Status     FriendshipStatus `json:"status"      db:"status"`
	SenderID   int64            `json:"sender_id"   db:"sender_id"`
	ReceiverID int64            `json:"receiver_id" db:"receiver_id"`
	Kind       ConnectionKind   `json:"kind"        db:"-"`
}

// Classify reports how c looks to the user viewerID. It depends only on the
// row itself, so any client holding the raw rows reaches the same answer.
func (c Connection) Classify(viewerID int64) ConnectionKind {
	if c.Status == FriendshipAccepted {
		return ConnectionAccepted
	}
	if c.SenderID == viewerID {
		return ConnectionOutgoing
	}
	return ConnectionIncoming
}

// Annotate returns a copy of rows with Kind filled in for viewerID.
func Annotate(viewerID int64, rows []Connection) []Connection {
	out := make([]Connection, len(rows))
	for i, c := range rows {
		c.Kind = c.Classify(viewerID)
		out[i] = c
	}
	return out
}

// Network groups a user's connections by kind.
type Network struct {
	Friends  []Connection `json:"friends"`
	Incoming []Connection `json:"incoming"`
	Outgoing []Connection `json:"outgoing"`
}

// GroupConnections splits rows into a Network for viewerID.
func GroupConnections(viewerID int64, rows []Connection) Network {
	n := Network{
		Friends:  []Connection{},
		Incoming: []Connection{},
		Outgoing: []Connection{},
	}
	for _, c := range rows {
		c.Kind = c.Classify(viewerID)
		switch c.Kind {
		case ConnectionAccepted:
			n.Friends = append(n.Friends, c)
		case ConnectionIncoming:
			n.Incoming = append(n.Incoming, c)
		case ConnectionOutgoing:
			n.Outgoing = append(n.Outgoing, c)
		}
	}
	return n
}
