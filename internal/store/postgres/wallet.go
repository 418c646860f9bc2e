package postgres

import (
	"context"

	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

func (s *Store) Balance(ctx context.Context, proID string) (pricing.Cents, error) {
	var balance int64
	err := s.pool.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id = $1`, proID).Scan(&balance)
	if err != nil {
		return 0, notFound("load balance", "user", err)
	}
	return pricing.Cents(balance), nil
}

func scanTxn(row scanner) (wallet.Txn, error) {
	var (
		t      wallet.Txn
		typ    string
		amount int64
	)
	if err := row.Scan(&t.ID, &t.ProID, &t.JobID, &typ, &amount, &t.Note, &t.CreatedAt); err != nil {
		return wallet.Txn{}, err
	}
	t.Type = wallet.TxnType(typ)
	t.Amount = pricing.Cents(amount)
	return t, nil
}

func (s *Store) queryTxns(ctx context.Context, q string, args ...any) ([]wallet.Txn, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, dbErr("list wallet txns", err)
	}
	defer rows.Close()

	out := []wallet.Txn{}
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, dbErr("scan wallet txn", err)
		}
		out = append(out, t)
	}
	return out, dbErr("list wallet txns", rows.Err())
}

// ListTxns returns a pro's payouts, newest first.
func (s *Store) ListTxns(ctx context.Context, proID string) ([]wallet.Txn, error) {
	return s.queryTxns(ctx, `
		SELECT id, pro_id, job_id, type, amount, note, created_at
		FROM wallet_txns WHERE pro_id = $1
		ORDER BY created_at DESC`, proID)
}

// AllTxns returns the newest payouts across all pros. A limit of zero
// returns everything.
func (s *Store) AllTxns(ctx context.Context, limit int) ([]wallet.Txn, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	return s.queryTxns(ctx, `
		SELECT id, pro_id, job_id, type, amount, note, created_at
		FROM wallet_txns
		ORDER BY created_at DESC
		LIMIT $1`, lim)
}
