// Package admin serves the operator console. Every route sits behind the
// JWT middleware and the admin role guard.
package admin

import (
	"context"

	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Reports aggregates job state for the dashboard.
type Reports interface {
	CountJobsByStatus(ctx context.Context) (map[marketplace.Status]int, error)
	SettlementTotals(ctx context.Context) (marketplace.SettlementTotals, error)
}

// Accounts is the user management the console needs.
type Accounts interface {
	List(ctx context.Context, role user.Role) ([]user.User, error)
	SetActive(ctx context.Context, id string, active bool) (*user.User, error)
}

// Balances reads pro wallets.
type Balances interface {
	Balance(ctx context.Context, proID string) (pricing.Cents, error)
}

// Lockouts clears PIN lockouts.
type Lockouts interface {
	ClearLockout(ctx context.Context, customerID string) error
}

type Handler struct {
	reports  Reports
	accounts Accounts
	balances Balances
	lockouts Lockouts
}

func NewHandler(reports Reports, accounts Accounts, balances Balances, lockouts Lockouts) *Handler {
	return &Handler{reports: reports, accounts: accounts, balances: balances, lockouts: lockouts}
}
