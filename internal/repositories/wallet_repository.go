package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"sixdegrees-service/internal/models"
)

type WalletRepository interface {
	GetWallet(ctx context.Context, userID int64, limit int) (*models.Wallet, error)
	Purchase(ctx context.Context, userID, credits int64, paymentReference string) (*models.CreditTransaction, bool, error)
}

type walletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetWallet(ctx context.Context, userID int64, limit int) (*models.Wallet, error) {
	wallet := &models.Wallet{UserID: userID}
	if err := r.db.GetContext(ctx, &wallet.Credits, `SELECT credits FROM users WHERE id=$1`, userID); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &wallet.Transactions, `
SELECT id, user_id, amount, kind, reference, created_at
FROM credit_transactions
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit); err != nil {
		return nil, err
	}
	if wallet.Transactions == nil {
		wallet.Transactions = []models.CreditTransaction{}
	}
	return wallet, nil
}

// Purchase credits the user once per payment reference. A repeated reference
// returns the original ledger entry and false.
func (r *walletRepository) Purchase(ctx context.Context, userID, credits int64, paymentReference string) (*models.CreditTransaction, bool, error) {
	if existing, err := r.findPurchase(ctx, userID, paymentReference); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	var entry *models.CreditTransaction
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		entry, err = applyCredit(ctx, tx, userID, credits, models.TxKindPurchase, paymentReference)
		return err
	})
	if errors.Is(err, ErrDuplicate) {
		existing, findErr := r.findPurchase(ctx, userID, paymentReference)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (r *walletRepository) findPurchase(ctx context.Context, userID int64, reference string) (*models.CreditTransaction, error) {
	var entry models.CreditTransaction
	err := r.db.GetContext(ctx, &entry, `
SELECT id, user_id, amount, kind, reference, created_at
FROM credit_transactions
WHERE user_id=$1 AND kind='purchase' AND reference=$2
`, userID, reference)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
