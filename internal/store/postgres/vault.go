package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/vault"
)

const pinColumns = `customer_id, hash, failed_attempts, locked_until, updated_at`

func scanPin(row scanner) (*vault.Pin, error) {
	var p vault.Pin
	if err := row.Scan(&p.CustomerID, &p.Hash, &p.FailedAttempts, &p.LockedUntil, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPin(ctx context.Context, customerID string) (*vault.Pin, error) {
	p, err := scanPin(s.pool.QueryRow(ctx, `SELECT `+pinColumns+` FROM vault_pins WHERE customer_id = $1`, customerID))
	if err != nil {
		return nil, notFound("load pin", "pin", err)
	}
	return p, nil
}

func (s *Store) CreatePin(ctx context.Context, p *vault.Pin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vault_pins (`+pinColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		p.CustomerID, p.Hash, p.FailedAttempts, p.LockedUntil, p.UpdatedAt)
	return dbErr("create pin", err)
}

func (s *Store) UpdatePin(ctx context.Context, customerID string, fn func(*vault.Pin) error) (*vault.Pin, error) {
	var out *vault.Pin
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPin(tx.QueryRow(ctx, `SELECT `+pinColumns+` FROM vault_pins WHERE customer_id = $1 FOR UPDATE`, customerID))
		if err != nil {
			return notFound("lock pin", "pin", err)
		}
		if err := fn(p); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE vault_pins SET hash = $2, failed_attempts = $3, locked_until = $4, updated_at = $5
			WHERE customer_id = $1`,
			customerID, p.Hash, p.FailedAttempts, p.LockedUntil, p.UpdatedAt)
		if err != nil {
			return dbErr("update pin", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const methodColumns = `id, customer_id, brand, last4, exp_month, exp_year, label, created_at`

func scanMethod(row scanner) (*vault.Method, error) {
	var (
		m     vault.Method
		brand string
	)
	if err := row.Scan(&m.ID, &m.CustomerID, &brand, &m.Last4, &m.ExpMonth, &m.ExpYear, &m.Label, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Brand = vault.Brand(brand)
	return &m, nil
}

func (s *Store) AddMethod(ctx context.Context, m *vault.Method) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payment_methods (`+methodColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.CustomerID, string(m.Brand), m.Last4, m.ExpMonth, m.ExpYear, m.Label, m.CreatedAt)
	return dbErr("add payment method", err)
}

func (s *Store) ListMethods(ctx context.Context, customerID string) ([]vault.Method, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+methodColumns+` FROM payment_methods
		WHERE customer_id = $1
		ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, dbErr("list payment methods", err)
	}
	defer rows.Close()

	out := []vault.Method{}
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, dbErr("scan payment method", err)
		}
		out = append(out, *m)
	}
	return out, dbErr("list payment methods", rows.Err())
}

func (s *Store) GetMethod(ctx context.Context, customerID, id string) (*vault.Method, error) {
	m, err := scanMethod(s.pool.QueryRow(ctx, `
		SELECT `+methodColumns+` FROM payment_methods WHERE id = $1 AND customer_id = $2`,
		id, customerID))
	if err != nil {
		return nil, notFound("load payment method", "payment method", err)
	}
	return m, nil
}

func (s *Store) DeleteMethod(ctx context.Context, customerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1 AND customer_id = $2`, id, customerID)
	if err != nil {
		return dbErr("delete payment method", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment method")
	}
	return nil
}
