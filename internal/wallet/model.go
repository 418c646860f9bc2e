package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
)

type TxnType string

const TxnPayout TxnType = "payout"

// Txn is an append-only wallet record.
type Txn struct {
	ID        string        `json:"id"`
	ProID     string        `json:"pro_id"`
	JobID     string        `json:"job_id"`
	Type      TxnType       `json:"type"`
	Amount    pricing.Cents `json:"amount"`
	Note      string        `json:"note"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store reads wallet balances and history. Credits only happen as part of
// job settlement.
type Store interface {
	Balance(ctx context.Context, proID string) (pricing.Cents, error)
	ListTxns(ctx context.Context, proID string) ([]Txn, error)
	AllTxns(ctx context.Context, limit int) ([]Txn, error)
}

// ValidateCredit rejects credits that could make a balance go down.
func ValidateCredit(amount pricing.Cents) error {
	if amount < 0 {
		return apperr.Validation("wallet credit must not be negative")
	}
	return nil
}

// PayoutNote describes a settlement payout.
func PayoutNote(serviceName string) string {
	return fmt.Sprintf("Payout for %s (%d%% platform fee applied)", serviceName, pricing.FeePercent)
}
