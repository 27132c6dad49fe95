package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sixdegrees-service/internal/models"
)

var (
	ErrForbidden           = errors.New("operation not allowed")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRequestClosed       = errors.New("connection request is no longer active")
	ErrAlreadyParticipant  = errors.New("user already participates in this chain")
	ErrNotParticipant      = errors.New("user is not a participant of this chain")
	ErrDepthExceeded       = errors.New("chain is already at its maximum depth")
	ErrDuplicate           = errors.New("record already exists")
	ErrUndoNotAllowed      = errors.New("swipe can no longer be undone")
	ErrInviteClosed        = errors.New("invite has already been answered")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// applyCredit moves amount (may be negative) into the user's balance and
// records the matching ledger entry. The balance never goes below zero.
func applyCredit(ctx context.Context, tx *sqlx.Tx, userID, amount int64, kind, reference string) (*models.CreditTransaction, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `
UPDATE users SET credits = credits + $2
WHERE id=$1 AND credits + $2 >= 0
RETURNING credits
`, userID, amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID); err != nil {
				return nil, err
			}
			if !exists {
				return nil, sql.ErrNoRows
			}
			return nil, ErrInsufficientCredits
		}
		return nil, err
	}

	var entry models.CreditTransaction
	err = tx.QueryRowxContext(ctx, `
INSERT INTO credit_transactions (user_id, amount, kind, reference)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, amount, kind, reference, created_at
`, userID, amount, kind, reference).StructScan(&entry)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &entry, nil
}

func requestRef(requestID int64) string {
	return strconv.FormatInt(requestID, 10)
}
