package marketplace

import (
	"context"

	"github.com/google/uuid"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

// CheckPayable reports whether the caller may pay the job right now.
func CheckPayable(j *Job, c user.Caller) error {
	if err := j.requireCustomer(c); err != nil {
		return err
	}
	if j.Status.In(StatusPaid, StatusCompleted) {
		return apperr.Conflict(apperr.ReasonAlreadyPaid, "job is already paid")
	}
	if j.Status != StatusPaymentRequested {
		return wrongStatus(j, "pay")
	}
	if j.ProID == "" {
		return apperr.Conflict(apperr.ReasonWrongStatus, "job has no assigned pro")
	}
	return nil
}

// AmountDue is the exact amount to charge for a payable job.
func AmountDue(j *Job) pricing.Cents {
	return pricing.ComputeTotals(j.Invoice).Subtotal
}

// MarkPaid settles a job after the customer's charge went through: it
// snapshots the totals, credits the pro's wallet with the payout and
// appends one payout record. charged must equal the current subtotal.
func (s *Service) MarkPaid(ctx context.Context, c user.Caller, jobID string, charged pricing.Cents) (*Job, error) {
	var totals pricing.Totals
	j, err := s.store.SettleJob(ctx, jobID, func(j *Job) (*wallet.Txn, error) {
		if err := CheckPayable(j, c); err != nil {
			return nil, err
		}
		totals = pricing.ComputeTotals(j.Invoice)
		if totals.Subtotal != charged {
			return nil, apperr.Conflict(apperr.ReasonWrongStatus, "invoice changed during payment")
		}
		if err := wallet.ValidateCredit(totals.ProPayout); err != nil {
			return nil, err
		}

		now := s.now().UTC()
		j.LastPaymentTotal = totals.Subtotal
		j.LastPlatformFee = totals.PlatformFee
		j.LastProPayout = totals.ProPayout
		j.PaidAt = &now
		j.Status = StatusPaid
		j.UpdatedAt = now

		return &wallet.Txn{
			ID:        uuid.New().String(),
			ProID:     j.ProID,
			JobID:     j.ID,
			Type:      wallet.TxnPayout,
			Amount:    totals.ProPayout,
			Note:      wallet.PayoutNote(j.ServiceName),
			CreatedAt: now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Job %s paid: subtotal %v fee %v payout %v", j.ID, totals.Subtotal, totals.PlatformFee, totals.ProPayout)

	evt := NewEvent(EventPaid, j)
	evt.Amount = totals.ProPayout
	s.notifier.Notify(ctx, evt)
	return j, nil
}

// Complete closes out a paid job and counts it toward the pro's record.
func (s *Service) Complete(ctx context.Context, c user.Caller, jobID string) (*Job, error) {
	j, err := s.store.CompleteJob(ctx, jobID, func(j *Job) error {
		if err := j.requireCustomer(c); err != nil {
			return err
		}
		if j.Status != StatusPaid {
			return wrongStatus(j, "complete")
		}
		now := s.now().UTC()
		j.Status = StatusCompleted
		j.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, NewEvent(EventCompleted, j))
	return j, nil
}

// SubmitRating records the customer's one rating for a completed job and
// folds it into the pro's reputation.
func (s *Service) SubmitRating(ctx context.Context, c user.Caller, jobID string, rating int) (*Job, error) {
	if err := user.ValidateRating(rating); err != nil {
		return nil, err
	}
	j, err := s.store.RateJob(ctx, jobID, func(j *Job) error {
		if err := j.requireCustomer(c); err != nil {
			return err
		}
		if j.CustomerRating != nil {
			return apperr.Conflict(apperr.ReasonAlreadyRated, "job already rated")
		}
		if j.ProID == "" {
			return apperr.Conflict(apperr.ReasonWrongStatus, "job has no assigned pro")
		}
		if j.Status != StatusCompleted {
			return wrongStatus(j, "rate")
		}
		r := rating
		j.CustomerRating = &r
		j.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("Job %s rated %d", j.ID, rating)

	evt := NewEvent(EventRated, j)
	evt.Rating = j.CustomerRating
	s.notifier.Notify(ctx, evt)
	return j, nil
}
