package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/rewards"
	"sixdegrees-service/internal/telemetry"
)

const participantColumns = "id, request_id, user_id, parent_user_id, depth, role, frozen_until, joined_at"

type ClickStats struct {
	TotalClicks    int64 `db:"total_clicks"`
	UniqueVisitors int64 `db:"unique_visitors"`
}

type ChainRepository interface {
	ListParticipants(ctx context.Context, requestID int64) ([]models.ChainParticipant, error)
	IsParticipant(ctx context.Context, requestID, userID int64) (bool, error)
	Join(ctx context.Context, requestID, userID, parentUserID int64, maxDepth int, now time.Time) (*models.ChainParticipant, error)
	Freeze(ctx context.Context, requestID, creatorID, userID int64, now, until time.Time) ([]int64, error)
	Complete(ctx context.Context, requestID, creatorID, connectorID int64, policy rewards.Policy, now time.Time) (*models.ChainCompletion, error)
	ListRewards(ctx context.Context, requestID int64) ([]models.ChainReward, error)
	RecordClick(ctx context.Context, click models.LinkClick) error
	ClickStats(ctx context.Context, requestID int64) (*ClickStats, error)
}

type chainRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewChainRepository(db *sqlx.DB, publisher rabbitmq.Publisher) ChainRepository {
	return &chainRepository{db: db, publisher: publisher}
}

func (r *chainRepository) ListParticipants(ctx context.Context, requestID int64) ([]models.ChainParticipant, error) {
	var participants []models.ChainParticipant
	err := r.db.SelectContext(ctx, &participants, `
SELECT `+participantColumns+`
FROM chain_participants
WHERE request_id=$1
ORDER BY depth, joined_at
`, requestID)
	return participants, err
}

func (r *chainRepository) IsParticipant(ctx context.Context, requestID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM chain_participants WHERE request_id=$1 AND user_id=$2)
`, requestID, userID)
	return exists, err
}

// Join seats userID below parentUserID. The request row lock serialises
// concurrent joins so depth checks see a consistent chain.
func (r *chainRepository) Join(ctx context.Context, requestID, userID, parentUserID int64, maxDepth int, now time.Time) (*models.ChainParticipant, error) {
	var participant models.ChainParticipant
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var req models.ConnectionRequest
		if err := lockRequest(ctx, tx, requestID, &req); err != nil {
			return err
		}
		if !req.IsActive(now) {
			return ErrRequestClosed
		}

		var already bool
		if err := tx.GetContext(ctx, &already, `
SELECT EXISTS(SELECT 1 FROM chain_participants WHERE request_id=$1 AND user_id=$2)
`, requestID, userID); err != nil {
			return err
		}
		if already {
			return ErrAlreadyParticipant
		}

		var parentDepth []int
		if err := tx.SelectContext(ctx, &parentDepth, `
SELECT depth FROM chain_participants WHERE request_id=$1 AND user_id=$2
`, requestID, parentUserID); err != nil {
			return err
		}
		if len(parentDepth) == 0 {
			return ErrNotParticipant
		}
		depth := parentDepth[0] + 1
		if depth > maxDepth {
			return ErrDepthExceeded
		}

		err := tx.QueryRowxContext(ctx, `
INSERT INTO chain_participants (request_id, user_id, parent_user_id, depth, role)
VALUES ($1, $2, $3, $4, 'forwarder')
RETURNING `+participantColumns, requestID, userID, parentUserID, depth).StructScan(&participant)
		if isUniqueViolation(err) {
			return ErrAlreadyParticipant
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	telemetry.Publish(ctx, r.publisher, telemetry.EventChainJoined, telemetry.ChainJoinedEvent{
		RequestID:    requestID,
		UserID:       userID,
		ParentUserID: parentUserID,
		Depth:        participant.Depth,
		JoinedAt:     participant.JoinedAt,
	})
	return &participant, nil
}

// Freeze sets frozen_until on userID and every participant below it.
func (r *chainRepository) Freeze(ctx context.Context, requestID, creatorID, userID int64, now, until time.Time) ([]int64, error) {
	var frozen []int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var req models.ConnectionRequest
		if err := lockRequest(ctx, tx, requestID, &req); err != nil {
			return err
		}
		if req.CreatorID != creatorID || userID == creatorID {
			return ErrForbidden
		}
		if !req.IsActive(now) {
			return ErrRequestClosed
		}

		nodes, err := loadNodes(ctx, tx, requestID)
		if err != nil {
			return err
		}
		subtree, err := rewards.Subtree(nodes, userID)
		if err != nil {
			return ErrNotParticipant
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE chain_participants SET frozen_until=$3
WHERE request_id=$1 AND user_id = ANY($2)
`, requestID, pq.Array(subtree), until); err != nil {
			return err
		}
		frozen = subtree
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.Publish(ctx, r.publisher, telemetry.EventParticipantFrozen, telemetry.ParticipantFrozenEvent{
		RequestID:   requestID,
		UserIDs:     frozen,
		FrozenUntil: until,
	})
	return frozen, nil
}

// Complete pays out the reward along the connector's path, refunds withheld
// shares to the creator, links neighbouring path members and closes the request.
func (r *chainRepository) Complete(ctx context.Context, requestID, creatorID, connectorID int64, policy rewards.Policy, now time.Time) (*models.ChainCompletion, error) {
	var completion *models.ChainCompletion
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var req models.ConnectionRequest
		if err := lockRequest(ctx, tx, requestID, &req); err != nil {
			return err
		}
		if req.CreatorID != creatorID {
			return ErrForbidden
		}
		if !req.IsActive(now) {
			return ErrRequestClosed
		}

		nodes, err := loadNodes(ctx, tx, requestID)
		if err != nil {
			return err
		}
		dist, err := rewards.Distribute(nodes, connectorID, req.CreditReward, req.CashRewardCents, policy, now)
		if err != nil {
			return err
		}

		ref := requestRef(requestID)
		result := &models.ChainCompletion{
			RequestID:       requestID,
			ConnectorUserID: connectorID,
			Path:            dist.Path,
			RefundedCredits: dist.WithheldCredits,
			WithheldCash:    dist.WithheldCashCents,
		}
		for _, payout := range dist.Payouts {
			if payout.Credits > 0 {
				if _, err := applyCredit(ctx, tx, payout.UserID, payout.Credits, models.TxKindReward, ref); err != nil {
					return err
				}
			}
			var reward models.ChainReward
			if err := tx.QueryRowxContext(ctx, `
INSERT INTO chain_rewards (request_id, user_id, credits, cash_cents)
VALUES ($1, $2, $3, $4)
RETURNING request_id, user_id, credits, cash_cents, created_at
`, requestID, payout.UserID, payout.Credits, payout.CashCents).StructScan(&reward); err != nil {
				return err
			}
			result.Rewards = append(result.Rewards, reward)
		}

		if dist.WithheldCredits > 0 {
			if _, err := applyCredit(ctx, tx, req.CreatorID, dist.WithheldCredits, models.TxKindRefund, ref); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE chain_participants SET role='connector' WHERE request_id=$1 AND user_id=$2
`, requestID, connectorID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE connection_requests SET status='completed', completed_at=$2 WHERE id=$1
`, requestID, now); err != nil {
			return err
		}

		for i := 0; i+1 < len(dist.Path); i++ {
			if err := insertConnection(ctx, tx, dist.Path[i], dist.Path[i+1], models.SourceChain); err != nil {
				return err
			}
		}

		completion = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	var awarded int64
	for _, reward := range completion.Rewards {
		awarded += reward.Credits
		telemetry.Publish(ctx, r.publisher, telemetry.EventRewardCredited, telemetry.RewardCreditedEvent{
			RequestID: requestID,
			UserID:    reward.UserID,
			Credits:   reward.Credits,
			CashCents: reward.CashCents,
		})
	}
	metrics.AddCreditsAwarded(awarded)
	telemetry.Publish(ctx, r.publisher, telemetry.EventChainCompleted, telemetry.ChainCompletedEvent{
		RequestID:       requestID,
		ConnectorUserID: connectorID,
		Path:            completion.Path,
		RefundedCredits: completion.RefundedCredits,
		CompletedAt:     now,
	})
	return completion, nil
}

func (r *chainRepository) ListRewards(ctx context.Context, requestID int64) ([]models.ChainReward, error) {
	var out []models.ChainReward
	err := r.db.SelectContext(ctx, &out, `
SELECT request_id, user_id, credits, cash_cents, created_at
FROM chain_rewards WHERE request_id=$1 ORDER BY credits DESC, user_id
`, requestID)
	return out, err
}

func (r *chainRepository) RecordClick(ctx context.Context, click models.LinkClick) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO link_clicks (request_id, share_id, referrer_user_id, visitor_key)
VALUES ($1, $2, $3, $4)
`, click.RequestID, click.ShareID, click.ReferrerUserID, click.VisitorKey)
	return err
}

func (r *chainRepository) ClickStats(ctx context.Context, requestID int64) (*ClickStats, error) {
	var stats ClickStats
	err := r.db.GetContext(ctx, &stats, `
SELECT COUNT(*) AS total_clicks, COUNT(DISTINCT visitor_key) AS unique_visitors
FROM link_clicks WHERE request_id=$1
`, requestID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func loadNodes(ctx context.Context, tx *sqlx.Tx, requestID int64) ([]rewards.Node, error) {
	var participants []models.ChainParticipant
	if err := tx.SelectContext(ctx, &participants, `
SELECT `+participantColumns+` FROM chain_participants WHERE request_id=$1
`, requestID); err != nil {
		return nil, err
	}
	return ParticipantNodes(participants), nil
}

// ParticipantNodes converts stored participants into reward graph nodes.
func ParticipantNodes(participants []models.ChainParticipant) []rewards.Node {
	nodes := make([]rewards.Node, 0, len(participants))
	for _, p := range participants {
		node := rewards.Node{UserID: p.UserID, FrozenUntil: p.FrozenUntil}
		if p.ParentUserID != nil {
			node.ParentID = *p.ParentUserID
		}
		nodes = append(nodes, node)
	}
	return nodes
}
