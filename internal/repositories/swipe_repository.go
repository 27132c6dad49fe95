package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/telemetry"
)

type SwipeRepository interface {
	Discover(ctx context.Context, userID int64, limit int) ([]models.PublicUser, error)
	Record(ctx context.Context, actorID, targetID int64, action string) (*models.Swipe, *models.Match, error)
	UndoLatest(ctx context.Context, actorID int64, window time.Duration, now time.Time) (*models.Swipe, error)
	ListMatches(ctx context.Context, userID int64) ([]models.Match, error)
}

type swipeRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewSwipeRepository(db *sqlx.DB, publisher rabbitmq.Publisher) SwipeRepository {
	return &swipeRepository{db: db, publisher: publisher}
}

// Discover lists users the caller has neither swiped nor connected with.
func (r *swipeRepository) Discover(ctx context.Context, userID int64, limit int) ([]models.PublicUser, error) {
	users := []models.PublicUser{}
	err := r.db.SelectContext(ctx, &users, `
SELECT u.id, u.username, u.display_name, u.bio, u.avatar_url
FROM users u
WHERE u.id <> $1
  AND NOT EXISTS (SELECT 1 FROM swipes s WHERE s.actor_user_id=$1 AND s.target_user_id=u.id)
  AND NOT EXISTS (SELECT 1 FROM connections c WHERE c.user_id=$1 AND c.connected_id=u.id)
ORDER BY u.created_at DESC
LIMIT $2
`, userID, limit)
	return users, err
}

// Record stores a swipe. A like answering an earlier like from the target
// creates a match and connects the pair. Both user rows are locked in id
// order first, so two crossing likes run one after the other and the second
// sees the first.
func (r *swipeRepository) Record(ctx context.Context, actorID, targetID int64, action string) (*models.Swipe, *models.Match, error) {
	var swipe models.Swipe
	var match *models.Match
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked []int64
		if err := tx.SelectContext(ctx, &locked, `
SELECT id FROM users WHERE id IN ($1, $2) ORDER BY id FOR NO KEY UPDATE
`, actorID, targetID); err != nil {
			return err
		}

		if err := tx.QueryRowxContext(ctx, `
INSERT INTO swipes (actor_user_id, target_user_id, action)
VALUES ($1, $2, $3)
RETURNING actor_user_id, target_user_id, action, matched, created_at
`, actorID, targetID, action).StructScan(&swipe); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		if action != models.SwipeLike {
			return nil
		}

		var mutual bool
		if err := tx.GetContext(ctx, &mutual, `
SELECT EXISTS(
SELECT 1 FROM swipes WHERE actor_user_id=$1 AND target_user_id=$2 AND action='like'
)
`, targetID, actorID); err != nil {
			return err
		}
		if !mutual {
			return nil
		}

		a, b := actorID, targetID
		if a > b {
			a, b = b, a
		}
		var m models.Match
		if err := tx.QueryRowxContext(ctx, `
INSERT INTO matches (user_a_id, user_b_id) VALUES ($1, $2)
ON CONFLICT (user_a_id, user_b_id) DO UPDATE SET user_a_id = EXCLUDED.user_a_id
RETURNING id, user_a_id, user_b_id, created_at
`, a, b).StructScan(&m); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE swipes SET matched=TRUE
WHERE (actor_user_id=$1 AND target_user_id=$2) OR (actor_user_id=$2 AND target_user_id=$1)
`, actorID, targetID); err != nil {
			return err
		}
		if err := insertConnection(ctx, tx, actorID, targetID, models.SourceMatch); err != nil {
			return err
		}
		swipe.Matched = true
		match = &m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if match != nil {
		telemetry.Publish(ctx, r.publisher, telemetry.EventMatchCreated, telemetry.MatchEvent{
			MatchID: match.ID,
			UserAID: match.UserAID,
			UserBID: match.UserBID,
		})
		telemetry.Publish(ctx, r.publisher, telemetry.EventConnectionCreated, telemetry.ConnectionEvent{
			UserID:      actorID,
			OtherUserID: targetID,
			Source:      models.SourceMatch,
			OccurredAt:  match.CreatedAt,
		})
	}
	return &swipe, match, nil
}

// UndoLatest deletes the actor's most recent swipe if it is younger than
// window and did not produce a match.
func (r *swipeRepository) UndoLatest(ctx context.Context, actorID int64, window time.Duration, now time.Time) (*models.Swipe, error) {
	var swipe models.Swipe
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &swipe, `
SELECT actor_user_id, target_user_id, action, matched, created_at
FROM swipes
WHERE actor_user_id=$1
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE
`, actorID); err != nil {
			return err
		}
		if swipe.Matched || now.Sub(swipe.CreatedAt) > window {
			return ErrUndoNotAllowed
		}
		_, err := tx.ExecContext(ctx, `
DELETE FROM swipes WHERE actor_user_id=$1 AND target_user_id=$2
`, swipe.ActorUserID, swipe.TargetUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

func (r *swipeRepository) ListMatches(ctx context.Context, userID int64) ([]models.Match, error) {
	matches := []models.Match{}
	err := r.db.SelectContext(ctx, &matches, `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE user_a_id=$1 OR user_b_id=$1
ORDER BY created_at DESC
`, userID)
	return matches, err
}
