package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/telemetry"
)

const requestColumns = `id, creator_id, target, target_organization, message, credit_reward,
cash_reward_cents, share_id, status, created_at, expires_at, completed_at`

type RequestRepository interface {
	Create(ctx context.Context, in models.NewConnectionRequest) (*models.ConnectionRequest, error)
	GetByID(ctx context.Context, id int64) (*models.ConnectionRequest, error)
	GetByShareID(ctx context.Context, shareID string) (*models.ConnectionRequest, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]models.ConnectionRequest, error)
	ListJoined(ctx context.Context, userID int64) ([]models.ConnectionRequest, error)
	CountActiveByCreator(ctx context.Context, creatorID int64) (int, error)
	Cancel(ctx context.Context, id, userID int64) (*models.ConnectionRequest, error)
	ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.ConnectionRequest, error)
}

type requestRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewRequestRepository(db *sqlx.DB, publisher rabbitmq.Publisher) RequestRepository {
	return &requestRepository{db: db, publisher: publisher}
}

// Create stores the request, charges the creator's credit reward and seats the
// creator as the chain root, all in one transaction.
func (r *requestRepository) Create(ctx context.Context, in models.NewConnectionRequest) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
INSERT INTO connection_requests
  (creator_id, target, target_organization, message, credit_reward, cash_reward_cents, share_id, status, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8)
RETURNING `+requestColumns,
			in.CreatorID, in.Target, in.TargetOrganization, in.Message,
			in.CreditReward, in.CashRewardCents, in.ShareID, in.ExpiresAt,
		).StructScan(&req); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}

		if req.CreditReward > 0 {
			if _, err := applyCredit(ctx, tx, req.CreatorID, -req.CreditReward, models.TxKindRequestSpend, requestRef(req.ID)); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO chain_participants (request_id, user_id, parent_user_id, depth, role)
VALUES ($1, $2, NULL, 0, 'creator')
`, req.ID, req.CreatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	telemetry.Publish(ctx, r.publisher, telemetry.EventRequestCreated, requestEvent(&req, req.CreatedAt))
	return &req, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	if err := r.db.GetContext(ctx, &req, "SELECT "+requestColumns+" FROM connection_requests WHERE id=$1", id); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) GetByShareID(ctx context.Context, shareID string) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	if err := r.db.GetContext(ctx, &req, "SELECT "+requestColumns+" FROM connection_requests WHERE share_id=$1", shareID); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListByCreator(ctx context.Context, creatorID int64) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := r.db.SelectContext(ctx, &reqs, `
SELECT `+requestColumns+`
FROM connection_requests
WHERE creator_id=$1
ORDER BY created_at DESC
`, creatorID)
	return reqs, err
}

func (r *requestRepository) ListJoined(ctx context.Context, userID int64) ([]models.ConnectionRequest, error) {
	var reqs []models.ConnectionRequest
	err := r.db.SelectContext(ctx, &reqs, `
SELECT r.id, r.creator_id, r.target, r.target_organization, r.message, r.credit_reward,
       r.cash_reward_cents, r.share_id, r.status, r.created_at, r.expires_at, r.completed_at
FROM connection_requests r
JOIN chain_participants p ON p.request_id = r.id
WHERE p.user_id=$1 AND p.role <> 'creator'
ORDER BY p.joined_at DESC
`, userID)
	return reqs, err
}

func (r *requestRepository) CountActiveByCreator(ctx context.Context, creatorID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
SELECT COUNT(*) FROM connection_requests WHERE creator_id=$1 AND status='active'
`, creatorID)
	return count, err
}

// Cancel closes an active request and refunds the creator.
func (r *requestRepository) Cancel(ctx context.Context, id, userID int64) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockRequest(ctx, tx, id, &req); err != nil {
			return err
		}
		if req.CreatorID != userID {
			return ErrForbidden
		}
		if req.Status != models.RequestStatusActive {
			return ErrRequestClosed
		}
		return closeWithRefund(ctx, tx, &req, models.RequestStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	telemetry.Publish(ctx, r.publisher, telemetry.EventRequestCancelled, requestEvent(&req, time.Now().UTC()))
	return &req, nil
}

// ExpireDue expires up to limit active requests whose deadline has passed.
// Rows locked by a concurrent sweep are skipped.
func (r *requestRepository) ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.ConnectionRequest, error) {
	var expired []models.ConnectionRequest
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var due []models.ConnectionRequest
		if err := tx.SelectContext(ctx, &due, `
SELECT `+requestColumns+`
FROM connection_requests
WHERE status='active' AND expires_at <= $1
ORDER BY expires_at
LIMIT $2
FOR UPDATE SKIP LOCKED
`, now, limit); err != nil {
			return err
		}
		for i := range due {
			if err := closeWithRefund(ctx, tx, &due[i], models.RequestStatusExpired); err != nil {
				return err
			}
		}
		expired = due
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range expired {
		telemetry.Publish(ctx, r.publisher, telemetry.EventRequestExpired, requestEvent(&expired[i], now))
	}
	return expired, nil
}

func lockRequest(ctx context.Context, tx *sqlx.Tx, id int64, dst *models.ConnectionRequest) error {
	return tx.GetContext(ctx, dst, "SELECT "+requestColumns+" FROM connection_requests WHERE id=$1 FOR UPDATE", id)
}

func closeWithRefund(ctx context.Context, tx *sqlx.Tx, req *models.ConnectionRequest, status string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE connection_requests SET status=$2 WHERE id=$1`, req.ID, status); err != nil {
		return err
	}
	req.Status = status
	if req.CreditReward == 0 {
		return nil
	}
	_, err := applyCredit(ctx, tx, req.CreatorID, req.CreditReward, models.TxKindRefund, requestRef(req.ID))
	return err
}

func requestEvent(req *models.ConnectionRequest, at time.Time) telemetry.RequestEvent {
	return telemetry.RequestEvent{
		RequestID:    req.ID,
		CreatorID:    req.CreatorID,
		ShareID:      req.ShareID,
		CreditReward: req.CreditReward,
		Status:       req.Status,
		OccurredAt:   at,
	}
}
