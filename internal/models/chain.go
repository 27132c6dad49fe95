package models

import "time"

const (
	RoleCreator   = "creator"
	RoleForwarder = "forwarder"
	RoleConnector = "connector"
)

type ChainParticipant struct {
	ID           int64      `db:"id" json:"id"`
	RequestID    int64      `db:"request_id" json:"request_id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	ParentUserID *int64     `db:"parent_user_id" json:"parent_user_id,omitempty"`
	Depth        int        `db:"depth" json:"depth"`
	Role         string     `db:"role" json:"role"`
	FrozenUntil  *time.Time `db:"frozen_until" json:"frozen_until,omitempty"`
	JoinedAt     time.Time  `db:"joined_at" json:"joined_at"`
}

type Chain struct {
	Request      ConnectionRequest  `json:"request"`
	Participants []ChainParticipant `json:"participants"`
}

type ChainReward struct {
	RequestID int64     `db:"request_id" json:"request_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Credits   int64     `db:"credits" json:"credits"`
	CashCents int64     `db:"cash_cents" json:"cash_cents"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChainCompletion summarises a completed chain.
type ChainCompletion struct {
	RequestID       int64         `json:"request_id"`
	ConnectorUserID int64         `json:"connector_user_id"`
	Path            []int64       `json:"path"`
	Rewards         []ChainReward `json:"rewards"`
	RefundedCredits int64         `json:"refunded_credits"`
	WithheldCash    int64         `json:"withheld_cash_cents"`
}

type LinkClick struct {
	ID             int64     `db:"id" json:"id"`
	RequestID      int64     `db:"request_id" json:"request_id"`
	ShareID        string    `db:"share_id" json:"share_id"`
	ReferrerUserID *int64    `db:"referrer_user_id" json:"referrer_user_id,omitempty"`
	VisitorKey     string    `db:"visitor_key" json:"-"`
	ClickedAt      time.Time `db:"clicked_at" json:"clicked_at"`
}

type ChainAnalytics struct {
	RequestID           int64       `json:"request_id"`
	TotalClicks         int64       `json:"total_clicks"`
	UniqueVisitors      int64       `json:"unique_visitors"`
	Participants        int         `json:"participants"`
	MaxDepth            int         `json:"max_depth"`
	ParticipantsAtDepth map[int]int `json:"participants_at_depth"`
}
