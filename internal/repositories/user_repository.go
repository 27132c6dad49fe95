package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"sixdegrees-service/internal/models"
)

const userColumns = "id, username, display_name, bio, avatar_url, credits, created_at"

// SignupBonusReference is the ledger reference of the one-time signup bonus.
const SignupBonusReference = "signup"

type UserRepository interface {
	Ensure(ctx context.Context, id int64, username string, signupBonus int64) (*models.User, bool, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetCredits(ctx context.Context, id int64) (int64, error)
	UpdateProfile(ctx context.Context, id int64, displayName, bio *string) (*models.User, error)
	SetAvatarURL(ctx context.Context, id int64, avatarURL string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Ensure inserts the user on first sight and grants the signup bonus once.
// The returned flag reports whether the row was created by this call.
func (r *userRepository) Ensure(ctx context.Context, id int64, username string, signupBonus int64) (*models.User, bool, error) {
	var created bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO users (id, username) VALUES ($1, $2)
ON CONFLICT (id) DO NOTHING
`, id, username)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = rows == 1

		if created && signupBonus > 0 {
			if _, err := applyCredit(ctx, tx, id, signupBonus, models.TxKindBonus, SignupBonusReference); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id=$1", id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetCredits(ctx context.Context, id int64) (int64, error) {
	var credits int64
	err := r.db.GetContext(ctx, &credits, "SELECT credits FROM users WHERE id=$1", id)
	return credits, err
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, displayName, bio *string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
UPDATE users
SET display_name = COALESCE($2, display_name),
    bio = COALESCE($3, bio)
WHERE id=$1
RETURNING `+userColumns, id, displayName, bio)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET avatar_url=$2 WHERE id=$1", id, avatarURL)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
