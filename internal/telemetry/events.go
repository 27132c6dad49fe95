package telemetry

import (
	"context"
	"log/slog"
	"time"

	"sixdegrees-service/internal/rabbitmq"
)

// Routing keys published on the events exchange.
const (
	EventRequestCreated    = "request.created"
	EventRequestCancelled  = "request.cancelled"
	EventRequestExpired    = "request.expired"
	EventChainJoined       = "chain.joined"
	EventChainCompleted    = "chain.completed"
	EventRewardCredited    = "reward.credited"
	EventParticipantFrozen = "participant.frozen"
	EventConnectionInvited = "connection.invited"
	EventConnectionCreated = "connection.created"
	EventMatchCreated      = "match.created"
	EventWalletPurchased   = "wallet.purchased"
)

type RequestEvent struct {
	RequestID    int64     `json:"request_id"`
	CreatorID    int64     `json:"creator_id"`
	ShareID      string    `json:"share_id"`
	CreditReward int64     `json:"credit_reward"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ChainJoinedEvent struct {
	RequestID    int64     `json:"request_id"`
	UserID       int64     `json:"user_id"`
	ParentUserID int64     `json:"parent_user_id"`
	Depth        int       `json:"depth"`
	JoinedAt     time.Time `json:"joined_at"`
}

type ChainCompletedEvent struct {
	RequestID       int64     `json:"request_id"`
	ConnectorUserID int64     `json:"connector_user_id"`
	Path            []int64   `json:"path"`
	RefundedCredits int64     `json:"refunded_credits"`
	CompletedAt     time.Time `json:"completed_at"`
}

type RewardCreditedEvent struct {
	RequestID int64 `json:"request_id"`
	UserID    int64 `json:"user_id"`
	Credits   int64 `json:"credits"`
	CashCents int64 `json:"cash_cents"`
}

type ParticipantFrozenEvent struct {
	RequestID   int64     `json:"request_id"`
	UserIDs     []int64   `json:"user_ids"`
	FrozenUntil time.Time `json:"frozen_until"`
}

type ConnectionEvent struct {
	UserID      int64     `json:"user_id"`
	OtherUserID int64     `json:"other_user_id"`
	Source      string    `json:"source"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type MatchEvent struct {
	MatchID int64 `json:"match_id"`
	UserAID int64 `json:"user_a_id"`
	UserBID int64 `json:"user_b_id"`
}

type PurchaseEvent struct {
	UserID           int64  `json:"user_id"`
	PackageID        string `json:"package_id"`
	Credits          int64  `json:"credits"`
	PaymentReference string `json:"payment_reference"`
}

// Publish sends a domain event and logs failures instead of returning them.
// Callers publish after the owning transaction commits.
func Publish(ctx context.Context, p rabbitmq.Publisher, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		slog.Warn("failed to publish event", "routing_key", routingKey, "error", err)
	}
}
