package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/telemetry"
)

type ConnectionRepository interface {
	CreateInvite(ctx context.Context, fromUserID, toUserID int64) (*models.ConnectionInvite, error)
	GetIncomingInvites(ctx context.Context, userID int64) ([]models.ConnectionInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID int64) error
	RejectInvite(ctx context.Context, inviteID, userID int64) error
	ListConnections(ctx context.Context, userID int64) ([]int64, error)
	CountConnections(ctx context.Context, userID int64) (int, error)
	HasPendingInvite(ctx context.Context, fromUserID, toUserID int64) (bool, error)
	AreConnected(ctx context.Context, userID, otherID int64) (bool, error)
	DeleteConnection(ctx context.Context, userID, otherID int64) error
}

type connectionRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewConnectionRepository(db *sqlx.DB, publisher rabbitmq.Publisher) ConnectionRepository {
	return &connectionRepository{db: db, publisher: publisher}
}

func (r *connectionRepository) CreateInvite(ctx context.Context, fromUserID, toUserID int64) (*models.ConnectionInvite, error) {
	var invite models.ConnectionInvite
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO connection_invites (from_user_id, to_user_id, status)
VALUES ($1, $2, 'pending')
RETURNING id, from_user_id, to_user_id, status, created_at
`, fromUserID, toUserID).StructScan(&invite)
	if err != nil {
		return nil, err
	}

	telemetry.Publish(ctx, r.publisher, telemetry.EventConnectionInvited, telemetry.ConnectionEvent{
		UserID:      invite.FromUserID,
		OtherUserID: invite.ToUserID,
		Source:      models.SourceInvite,
		OccurredAt:  invite.CreatedAt,
	})

	return &invite, nil
}

func (r *connectionRepository) GetIncomingInvites(ctx context.Context, userID int64) ([]models.ConnectionInvite, error) {
	var invites []models.ConnectionInvite
	err := r.db.SelectContext(ctx, &invites, `
SELECT id, from_user_id, to_user_id, status, created_at
FROM connection_invites
WHERE to_user_id=$1 AND status='pending'
ORDER BY created_at DESC
`, userID)
	return invites, err
}

func (r *connectionRepository) AcceptInvite(ctx context.Context, inviteID, userID int64) error {
	var event *telemetry.ConnectionEvent
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var invite models.ConnectionInvite
		if err := tx.GetContext(ctx, &invite, `
SELECT id, from_user_id, to_user_id, status, created_at
FROM connection_invites WHERE id=$1 FOR UPDATE
`, inviteID); err != nil {
			return err
		}
		if invite.ToUserID != userID {
			return ErrForbidden
		}
		if invite.Status != models.InviteStatusPending {
			return ErrInviteClosed
		}

		if _, err := tx.ExecContext(ctx, `UPDATE connection_invites SET status='accepted' WHERE id=$1`, inviteID); err != nil {
			return err
		}
		if err := insertConnection(ctx, tx, invite.FromUserID, invite.ToUserID, models.SourceInvite); err != nil {
			return err
		}

		event = &telemetry.ConnectionEvent{
			UserID:      invite.FromUserID,
			OtherUserID: invite.ToUserID,
			Source:      models.SourceInvite,
			OccurredAt:  time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		telemetry.Publish(ctx, r.publisher, telemetry.EventConnectionCreated, *event)
	}
	return nil
}

func (r *connectionRepository) RejectInvite(ctx context.Context, inviteID, userID int64) error {
	var toUserID int64
	if err := r.db.GetContext(ctx, &toUserID, `SELECT to_user_id FROM connection_invites WHERE id=$1`, inviteID); err != nil {
		return err
	}
	if toUserID != userID {
		return ErrForbidden
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE connection_invites SET status='rejected'
WHERE id=$1 AND to_user_id=$2 AND status='pending'
`, inviteID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrInviteClosed
	}
	return nil
}

func (r *connectionRepository) ListConnections(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `
SELECT connected_id
FROM connections
WHERE user_id=$1
ORDER BY connected_id
`, userID)
	return ids, err
}

func (r *connectionRepository) CountConnections(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM connections WHERE user_id=$1`, userID)
	return count, err
}

func (r *connectionRepository) HasPendingInvite(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(
SELECT 1 FROM connection_invites
WHERE ((from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1))
AND status='pending'
)
`, fromUserID, toUserID)
	return exists, err
}

func (r *connectionRepository) AreConnected(ctx context.Context, userID, otherID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS(
SELECT 1 FROM connections WHERE user_id=$1 AND connected_id=$2
)
`, userID, otherID)
	return exists, err
}

func (r *connectionRepository) DeleteConnection(ctx context.Context, userID, otherID int64) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM connections
WHERE (user_id=$1 AND connected_id=$2) OR (user_id=$2 AND connected_id=$1)
`, userID, otherID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// insertConnection stores both directions of the edge.
func insertConnection(ctx context.Context, tx *sqlx.Tx, userID, otherID int64, source string) error {
	if userID == otherID {
		return errors.New("cannot connect a user to themselves")
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO connections (user_id, connected_id, source) VALUES ($1, $2, $3), ($2, $1, $3)
ON CONFLICT (user_id, connected_id) DO NOTHING
`, userID, otherID, source)
	return err
}
