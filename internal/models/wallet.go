package models

import "time"

const (
	TxKindPurchase     = "purchase"
	TxKindRequestSpend = "request_spend"
	TxKindReward       = "reward"
	TxKindRefund       = "refund"
	TxKindBonus        = "bonus"
)

type CreditTransaction struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Kind      string    `db:"kind" json:"kind"`
	Reference string    `db:"reference" json:"reference"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Wallet struct {
	UserID       int64               `json:"user_id"`
	Credits      int64               `json:"credits"`
	Transactions []CreditTransaction `json:"transactions"`
}
