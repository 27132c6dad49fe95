package models

import "time"

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRejected = "rejected"
)

type ConnectionInvite struct {
	ID         int64     `db:"id" json:"id"`
	FromUserID int64     `db:"from_user_id" json:"from_user_id"`
	ToUserID   int64     `db:"to_user_id" json:"to_user_id"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Connection is one direction of an undirected edge in a user's network.
type Connection struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	ConnectedID int64     `db:"connected_id" json:"connected_id"`
	Source      string    `db:"source" json:"source"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Connection sources.
const (
	SourceInvite = "invite"
	SourceChain  = "chain"
	SourceMatch  = "match"
)
