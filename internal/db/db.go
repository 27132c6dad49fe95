package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		avatar_url TEXT,
		credits BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS connection_invites (
		id BIGSERIAL PRIMARY KEY,
		from_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL CHECK (status IN ('pending','accepted','rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS connections (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		connected_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		source TEXT NOT NULL CHECK (source IN ('invite','chain','match')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, connected_id)
		)`,
	`CREATE TABLE IF NOT EXISTS connection_requests (
		id BIGSERIAL PRIMARY KEY,
		creator_id BIGINT NOT NULL REFERENCES users(id),
		target TEXT NOT NULL,
		target_organization TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		credit_reward BIGINT NOT NULL CHECK (credit_reward >= 0),
		cash_reward_cents BIGINT NOT NULL DEFAULT 0 CHECK (cash_reward_cents >= 0),
		share_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL CHECK (status IN ('active','completed','cancelled','expired')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
		)`,
	`CREATE TABLE IF NOT EXISTS chain_participants (
		id BIGSERIAL PRIMARY KEY,
		request_id BIGINT NOT NULL REFERENCES connection_requests(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id),
		parent_user_id BIGINT REFERENCES users(id),
		depth INT NOT NULL CHECK (depth >= 0),
		role TEXT NOT NULL CHECK (role IN ('creator','forwarder','connector')),
		frozen_until TIMESTAMPTZ,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (request_id, user_id)
		)`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
		id BIGSERIAL PRIMARY KEY,
		request_id BIGINT NOT NULL REFERENCES connection_requests(id) ON DELETE CASCADE,
		share_id TEXT NOT NULL,
		referrer_user_id BIGINT,
		visitor_key TEXT NOT NULL,
		clicked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS credit_transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		amount BIGINT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('purchase','request_spend','reward','refund','bonus')),
		reference TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, kind, reference)
		)`,
	`CREATE TABLE IF NOT EXISTS chain_rewards (
		request_id BIGINT NOT NULL REFERENCES connection_requests(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id),
		credits BIGINT NOT NULL,
		cash_cents BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (request_id, user_id)
		)`,
	`CREATE TABLE IF NOT EXISTS swipes (
		actor_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		target_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		action TEXT NOT NULL CHECK (action IN ('like','pass')),
		matched BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (actor_user_id, target_user_id)
		)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id BIGSERIAL PRIMARY KEY,
		user_a_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_b_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (user_a_id < user_b_id),
		UNIQUE (user_a_id, user_b_id)
		)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_creator ON connection_requests(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_expiry ON connection_requests(expires_at) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_participants_user ON chain_participants(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_request ON link_clicks(request_id)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_tx_user ON credit_transactions(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_invites_to_user ON connection_invites(to_user_id) WHERE status = 'pending'`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, q := range migrations {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
