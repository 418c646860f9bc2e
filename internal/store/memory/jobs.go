package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

func cloneItems(items []pricing.LineItem) []pricing.LineItem {
	if items == nil {
		return nil
	}
	return append([]pricing.LineItem{}, items...)
}

func cloneJob(j *marketplace.Job) *marketplace.Job {
	c := *j
	c.Photos = cloneStrings(j.Photos)
	c.ProofPhotos = cloneStrings(j.ProofPhotos)
	c.Invoice.InvoiceParts = cloneItems(j.Invoice.InvoiceParts)
	c.Invoice.OtherParts = cloneItems(j.Invoice.OtherParts)
	if j.Invoice.UpdatedAt != nil {
		t := *j.Invoice.UpdatedAt
		c.Invoice.UpdatedAt = &t
	}
	if j.ScheduledAt != nil {
		t := *j.ScheduledAt
		c.ScheduledAt = &t
	}
	if j.PaidAt != nil {
		t := *j.PaidAt
		c.PaidAt = &t
	}
	if j.CustomerRating != nil {
		r := *j.CustomerRating
		c.CustomerRating = &r
	}
	return &c
}

func cloneBroadcast(b *marketplace.Broadcast) *marketplace.Broadcast {
	c := *b
	return &c
}

func (s *Store) CreateJob(ctx context.Context, job *marketplace.Job, b *marketplace.Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return apperr.Internal("duplicate job id", nil)
	}
	s.jobs[job.ID] = cloneJob(job)
	if b != nil {
		s.broadcasts[b.ID] = cloneBroadcast(b)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job")
	}
	return cloneJob(j), nil
}

// apply runs fn on a copy of the job and returns the copy. The caller
// commits it. s.mu must be held.
func (s *Store) apply(id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job")
	}
	c := cloneJob(j)
	if err := fn(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateJob(ctx context.Context, id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.apply(id, fn)
	if err != nil {
		return nil, err
	}
	s.jobs[id] = c
	return cloneJob(c), nil
}

func (s *Store) PriceJob(ctx context.Context, id string, fn func(*marketplace.Job, int) error) (*marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.apply(id, func(j *marketplace.Job) error {
		score := 0
		if pro, ok := s.users[j.ProID]; ok {
			score = pro.Profile.Score
		}
		return fn(j, score)
	})
	if err != nil {
		return nil, err
	}
	s.jobs[id] = c
	return cloneJob(c), nil
}

func (s *Store) SettleJob(ctx context.Context, id string, fn func(*marketplace.Job) (*wallet.Txn, error)) (*marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txn *wallet.Txn
	c, err := s.apply(id, func(j *marketplace.Job) error {
		var err error
		txn, err = fn(j)
		return err
	})
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, apperr.Internal("settlement produced no payout", nil)
	}
	if s.paidJobs[id] {
		return nil, apperr.Conflict(apperr.ReasonAlreadyPaid, "job is already paid")
	}
	if err := wallet.ValidateCredit(txn.Amount); err != nil {
		return nil, err
	}
	pro, ok := s.users[txn.ProID]
	if !ok {
		return nil, apperr.NotFound("pro")
	}

	pro.Profile.WalletBalance += txn.Amount
	s.txns = append(s.txns, *txn)
	s.paidJobs[id] = true
	s.jobs[id] = c
	return cloneJob(c), nil
}

func (s *Store) CompleteJob(ctx context.Context, id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.apply(id, fn)
	if err != nil {
		return nil, err
	}
	pro, ok := s.users[c.ProID]
	if !ok {
		return nil, apperr.NotFound("pro")
	}
	pro.Profile.JobsDone++
	s.jobs[id] = c
	return cloneJob(c), nil
}

func (s *Store) RateJob(ctx context.Context, id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.apply(id, fn)
	if err != nil {
		return nil, err
	}
	if c.CustomerRating == nil {
		return nil, apperr.Internal("rating not set", nil)
	}
	pro, ok := s.users[c.ProID]
	if !ok {
		return nil, apperr.NotFound("pro")
	}
	user.ApplyRating(&pro.Profile, *c.CustomerRating)
	s.jobs[id] = c
	return cloneJob(c), nil
}

func (s *Store) ClaimBroadcast(ctx context.Context, broadcastID, proID string) (*marketplace.Job, *marketplace.Broadcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[broadcastID]
	if !ok {
		return nil, nil, apperr.NotFound("broadcast")
	}
	if b.Status != marketplace.BroadcastOpen {
		return nil, nil, apperr.Conflict(apperr.ReasonAlreadyClaimed, "someone already claimed this job")
	}
	j, ok := s.jobs[b.JobID]
	if !ok {
		return nil, nil, apperr.NotFound("job")
	}
	if j.ProID != "" || j.Status != marketplace.StatusBroadcastOpen {
		return nil, nil, apperr.Conflict(apperr.ReasonAlreadyAssigned, "this job already has a pro")
	}

	b.Status = marketplace.BroadcastClaimed
	b.ClaimedBy = proID
	j.ProID = proID
	j.Status = marketplace.StatusAssigned
	j.UpdatedAt = time.Now().UTC()
	return cloneJob(j), cloneBroadcast(b), nil
}

func (s *Store) GetBroadcast(ctx context.Context, id string) (*marketplace.Broadcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.broadcasts[id]
	if !ok {
		return nil, apperr.NotFound("broadcast")
	}
	return cloneBroadcast(b), nil
}

func (s *Store) ListOpenPostings(ctx context.Context) ([]marketplace.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []marketplace.Posting
	for _, b := range s.broadcasts {
		if b.Status != marketplace.BroadcastOpen {
			continue
		}
		j, ok := s.jobs[b.JobID]
		if !ok || j.Status != marketplace.StatusBroadcastOpen {
			continue
		}
		out = append(out, marketplace.Posting{Broadcast: *b, Job: *cloneJob(j)})
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].Broadcast.CreatedAt.After(out[k].Broadcast.CreatedAt)
	})
	return out, nil
}

func (s *Store) ListJobs(ctx context.Context, f marketplace.JobFilter) ([]marketplace.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []marketplace.Job{}
	for _, j := range s.jobs {
		if f.CustomerID != "" && j.CustomerID != f.CustomerID {
			continue
		}
		if f.ProID != "" && j.ProID != f.ProID {
			continue
		}
		if len(f.Statuses) > 0 && !j.Status.In(f.Statuses...) {
			continue
		}
		out = append(out, *cloneJob(j))
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) CountJobsByStatus(ctx context.Context) (map[marketplace.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[marketplace.Status]int, len(marketplace.Statuses))
	for _, st := range marketplace.Statuses {
		counts[st] = 0
	}
	for _, j := range s.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

func (s *Store) SettlementTotals(ctx context.Context) (marketplace.SettlementTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t marketplace.SettlementTotals
	for id := range s.paidJobs {
		j := s.jobs[id]
		t.Gross += j.LastPaymentTotal
		t.Fees += j.LastPlatformFee
		t.Payouts += j.LastProPayout
	}
	return t, nil
}
