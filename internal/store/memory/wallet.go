package memory

import (
	"context"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

func (s *Store) Balance(ctx context.Context, proID string) (pricing.Cents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[proID]
	if !ok {
		return 0, apperr.NotFound("user")
	}
	return u.Profile.WalletBalance, nil
}

// ListTxns returns a pro's payouts, newest first.
func (s *Store) ListTxns(ctx context.Context, proID string) ([]wallet.Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []wallet.Txn{}
	for i := len(s.txns) - 1; i >= 0; i-- {
		if s.txns[i].ProID == proID {
			out = append(out, s.txns[i])
		}
	}
	return out, nil
}

func (s *Store) AllTxns(ctx context.Context, limit int) ([]wallet.Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []wallet.Txn{}
	for i := len(s.txns) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.txns[i])
	}
	return out, nil
}
