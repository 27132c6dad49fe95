package models

import "time"

const (
	RequestStatusActive    = "active"
	RequestStatusCompleted = "completed"
	RequestStatusCancelled = "cancelled"
	RequestStatusExpired   = "expired"
)

// ConnectionRequest asks the network to introduce the creator to Target.
type ConnectionRequest struct {
	ID                 int64      `db:"id" json:"id"`
	CreatorID          int64      `db:"creator_id" json:"creator_id"`
	Target             string     `db:"target" json:"target"`
	TargetOrganization string     `db:"target_organization" json:"target_organization"`
	Message            string     `db:"message" json:"message"`
	CreditReward       int64      `db:"credit_reward" json:"credit_reward"`
	CashRewardCents    int64      `db:"cash_reward_cents" json:"cash_reward_cents"`
	ShareID            string     `db:"share_id" json:"share_id"`
	Status             string     `db:"status" json:"status"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt          time.Time  `db:"expires_at" json:"expires_at"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// IsActive reports whether the request still accepts joins and completion.
// A request past its deadline is closed even before the expiry sweep marks it.
func (r *ConnectionRequest) IsActive(now time.Time) bool {
	return r.Status == RequestStatusActive && r.ExpiresAt.After(now)
}

// PublicRequest is what an anonymous visitor of a share link sees.
type PublicRequest struct {
	ShareID            string    `json:"share_id"`
	CreatorID          int64     `json:"creator_id"`
	Target             string    `json:"target"`
	TargetOrganization string    `json:"target_organization"`
	Message            string    `json:"message"`
	CreditReward       int64     `json:"credit_reward"`
	CashRewardCents    int64     `json:"cash_reward_cents"`
	Status             string    `json:"status"`
	ExpiresAt          time.Time `json:"expires_at"`
}

func (r *ConnectionRequest) Public() PublicRequest {
	return PublicRequest{
		ShareID:            r.ShareID,
		CreatorID:          r.CreatorID,
		Target:             r.Target,
		TargetOrganization: r.TargetOrganization,
		Message:            r.Message,
		CreditReward:       r.CreditReward,
		CashRewardCents:    r.CashRewardCents,
		Status:             r.Status,
		ExpiresAt:          r.ExpiresAt,
	}
}

type NewConnectionRequest struct {
	CreatorID          int64
	Target             string
	TargetOrganization string
	Message            string
	CreditReward       int64
	CashRewardCents    int64
	ShareID            string
	ExpiresAt          time.Time
}
