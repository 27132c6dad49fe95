package models

import "time"

const (
	SwipeLike = "like"
	SwipePass = "pass"
)

type Swipe struct {
	ActorUserID  int64     `db:"actor_user_id" json:"actor_user_id"`
	TargetUserID int64     `db:"target_user_id" json:"target_user_id"`
	Action       string    `db:"action" json:"action"`
	Matched      bool      `db:"matched" json:"matched"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Match stores the pair ordered so that UserAID < UserBID.
type Match struct {
	ID        int64     `db:"id" json:"id"`
	UserAID   int64     `db:"user_a_id" json:"user_a_id"`
	UserBID   int64     `db:"user_b_id" json:"user_b_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
