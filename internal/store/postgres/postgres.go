// Package postgres implements every store on a pgx connection pool. Each
// mutating method that reads before it writes locks the rows it touches
// with SELECT ... FOR UPDATE inside one transaction.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/portfolio"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/vault"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var (
	_ user.Store            = (*Store)(nil)
	_ location.ReportSource = (*Store)(nil)
	_ marketplace.Store     = (*Store)(nil)
	_ wallet.Store          = (*Store)(nil)
	_ vault.Store           = (*Store)(nil)
	_ portfolio.Store       = (*Store)(nil)
	_ notifications.Store   = (*Store)(nil)
)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

type scanner interface {
	Scan(dest ...any) error
}

// inTx runs fn in a transaction and commits when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dbErr("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return dbErr("commit", err)
	}
	return nil
}

const uniqueViolation = "23505"

// dbErr maps a driver error onto the application's error kinds.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.As(err) != nil {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return apperr.Conflict(apperr.ReasonEmailTaken, "email already registered")
		case "wallet_txns_job_id_key":
			return apperr.Conflict(apperr.ReasonAlreadyPaid, "job is already paid")
		case "vault_pins_pkey":
			return apperr.Conflict(apperr.ReasonPinAlreadySet, "PIN is already set")
		}
	}
	log.Errorf("%s: %v", op, err)
	return apperr.Internal(op, errors.Wrap(err, op))
}

// notFound turns pgx.ErrNoRows into a not-found error for what.
func notFound(op, what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(what)
	}
	return dbErr(op, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
