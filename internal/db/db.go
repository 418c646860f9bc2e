// Package db opens the Postgres pool and keeps the schema current.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Init connects to Postgres, pings it and ensures the schema exists.
func Init(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "unable to ping database")
	}
	log.Infof("Connected to Postgres successfully")

	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates every table and index if missing. It is safe to run
// on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", usersTable},
		{"location_reports", locationReportsTable},
		{"jobs", jobsTable},
		{"broadcasts", broadcastsTable},
		{"wallet_txns", walletTxnsTable},
		{"vault", vaultTables},
		{"portfolio_posts", portfolioTable},
		{"notifications", notificationsTable},
	}
	for _, s := range steps {
		if _, err := pool.Exec(ctx, s.sql); err != nil {
			return errors.Wrapf(err, "ensure %s", s.name)
		}
		log.Debugf("%s schema ensured", s.name)
	}
	return nil
}

const usersTable = `
CREATE TABLE IF NOT EXISTS users (
    id             TEXT PRIMARY KEY,
    role           TEXT NOT NULL CHECK (role IN ('customer', 'pro', 'admin')),
    name           TEXT NOT NULL,
    email          TEXT NOT NULL UNIQUE,
    phone          TEXT NOT NULL DEFAULT '',
    password_hash  TEXT NOT NULL DEFAULT '',
    is_active      BOOLEAN NOT NULL DEFAULT TRUE,
    photo_url      TEXT NOT NULL DEFAULT '',
    trades         TEXT[] NOT NULL DEFAULT '{}',
    trades_locked  BOOLEAN NOT NULL DEFAULT FALSE,
    score          INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN 0 AND 100),
    ratings_count  INTEGER NOT NULL DEFAULT 0,
    jobs_done      INTEGER NOT NULL DEFAULT 0,
    wallet_balance BIGINT NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
    privacy        JSONB NOT NULL DEFAULT '{}',
    last_lat       DOUBLE PRECISION NULL,
    last_lng       DOUBLE PRECISION NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);`

const locationReportsTable = `
CREATE TABLE IF NOT EXISTS location_reports (
    user_id     TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    lat         DOUBLE PRECISION NULL,
    lng         DOUBLE PRECISION NULL,
    denied      BOOLEAN NOT NULL DEFAULT FALSE,
    reported_at TIMESTAMPTZ NOT NULL
);`

const jobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
    id                 TEXT PRIMARY KEY,
    customer_id        TEXT NOT NULL REFERENCES users(id),
    pro_id             TEXT NULL REFERENCES users(id),
    service_id         TEXT NOT NULL,
    service_name       TEXT NOT NULL,
    trade              TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    photos             TEXT[] NOT NULL DEFAULT '{}',
    lat                DOUBLE PRECISION NOT NULL,
    lng                DOUBLE PRECISION NOT NULL,
    match_mode         TEXT NOT NULL CHECK (match_mode IN ('direct', 'broadcast')),
    want_asap          BOOLEAN NOT NULL DEFAULT FALSE,
    scheduled_at       TIMESTAMPTZ NULL,
    status             TEXT NOT NULL CHECK (status IN (
        'broadcast_open', 'assigned', 'arrived', 'invoice_ready',
        'payment_requested', 'paid', 'completed'
    )),
    invoice            JSONB NOT NULL DEFAULT '{}',
    last_payment_total BIGINT NOT NULL DEFAULT 0,
    last_platform_fee  BIGINT NOT NULL DEFAULT 0,
    last_pro_payout    BIGINT NOT NULL DEFAULT 0,
    paid_at            TIMESTAMPTZ NULL,
    proof_photos       TEXT[] NOT NULL DEFAULT '{}',
    customer_rating    INTEGER NULL CHECK (customer_rating BETWEEN 0 AND 100),
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_jobs_customer ON jobs(customer_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_pro ON jobs(pro_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);`

const broadcastsTable = `
CREATE TABLE IF NOT EXISTS broadcasts (
    id         TEXT PRIMARY KEY,
    job_id     TEXT NOT NULL UNIQUE REFERENCES jobs(id) ON DELETE CASCADE,
    trade      TEXT NOT NULL,
    status     TEXT NOT NULL CHECK (status IN ('open', 'claimed')),
    claimed_by TEXT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_broadcasts_open ON broadcasts(created_at DESC) WHERE status = 'open';`

// One payout per job is enforced by the unique job_id.
const walletTxnsTable = `
CREATE TABLE IF NOT EXISTS wallet_txns (
    id         TEXT PRIMARY KEY,
    pro_id     TEXT NOT NULL REFERENCES users(id),
    job_id     TEXT NOT NULL UNIQUE REFERENCES jobs(id),
    type       TEXT NOT NULL,
    amount     BIGINT NOT NULL CHECK (amount >= 0),
    note       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_wallet_txns_pro ON wallet_txns(pro_id, created_at DESC);`

const vaultTables = `
CREATE TABLE IF NOT EXISTS vault_pins (
    customer_id     TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    hash            TEXT NOT NULL,
    failed_attempts INTEGER NOT NULL DEFAULT 0,
    locked_until    TIMESTAMPTZ NULL,
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS payment_methods (
    id          TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    brand       TEXT NOT NULL,
    last4       TEXT NOT NULL CHECK (length(last4) = 4),
    exp_month   INTEGER NOT NULL,
    exp_year    INTEGER NOT NULL,
    label       TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payment_methods_customer ON payment_methods(customer_id);`

const portfolioTable = `
CREATE TABLE IF NOT EXISTS portfolio_posts (
    id         TEXT PRIMARY KEY,
    pro_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    caption    TEXT NOT NULL,
    photos     TEXT[] NOT NULL,
    likes      INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_portfolio_pro ON portfolio_posts(pro_id, created_at DESC);`

const notificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL,
    title      TEXT NOT NULL,
    body       TEXT NOT NULL DEFAULT '',
    job_id     TEXT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    read_at    TIMESTAMPTZ NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;`
