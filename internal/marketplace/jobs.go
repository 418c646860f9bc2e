package marketplace

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

type CreateJobInput struct {
	ServiceID    string    `json:"service_id"`
	Description  string    `json:"description"`
	Photos       []string  `json:"photos"`
	MatchMode    MatchMode `json:"match_mode"`
	ProID        string    `json:"pro_id"`
	WantAsap     bool      `json:"want_asap"`
	ScheduleDate string    `json:"schedule_date"`
	ScheduleTime string    `json:"schedule_time"`
}

// NewBroadcast opens the claimable posting for a broadcast-mode job.
func NewBroadcast(j *Job) *Broadcast {
	return &Broadcast{
		ID:        uuid.New().String(),
		JobID:     j.ID,
		Trade:     j.Trade,
		Status:    BroadcastOpen,
		CreatedAt: j.CreatedAt,
	}
}

func (s *Service) checkDirectPro(ctx context.Context, proID string, trade pricing.Trade) error {
	if proID == "" {
		return apperr.Validation("choose a pro for a direct request")
	}
	pro, err := s.users.UserByID(ctx, proID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.NotFound("pro")
		}
		return err
	}
	if pro.Role != user.RolePro || !pro.Active {
		return apperr.Validation("chosen user is not an active pro")
	}
	if !pro.HasTrade(trade) {
		return apperr.Validation("chosen pro does not work in %s", trade)
	}
	return nil
}

// CreateJob records a customer's request. Direct jobs start assigned to the
// chosen pro; broadcast jobs start open with one claimable posting.
func (s *Service) CreateJob(ctx context.Context, c user.Caller, in CreateJobInput) (*Job, error) {
	if err := requireRole(c, user.RoleCustomer); err != nil {
		return nil, err
	}
	svc, ok := pricing.ServiceByID(in.ServiceID)
	if !ok {
		return nil, apperr.NotFound("service")
	}

	switch in.MatchMode {
	case MatchDirect:
		if err := s.checkDirectPro(ctx, in.ProID, svc.Trade); err != nil {
			return nil, err
		}
	case MatchBroadcast:
		in.ProID = ""
	default:
		return nil, apperr.Validation("match mode must be direct or broadcast")
	}

	now := s.now().UTC()
	job := &Job{
		ID:          uuid.New().String(),
		CustomerID:  c.ID,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Trade:       svc.Trade,
		Description: strings.TrimSpace(in.Description),
		Photos:      append([]string{}, in.Photos...),
		MatchMode:   in.MatchMode,
		WantAsap:    in.WantAsap,
		Invoice:     pricing.NewInvoice(svc.ID),
		ProofPhotos: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if job.Description == "" {
		job.Description = svc.Summary
	}

	if !in.WantAsap {
		at, err := ParseSchedule(in.ScheduleDate, in.ScheduleTime, s.tz, now)
		if err != nil {
			return nil, err
		}
		at = at.UTC()
		job.ScheduledAt = &at
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	house, err := s.locator.Resolve(rctx, c.ID)
	if err != nil {
		return nil, location.AsCollaboratorError(err)
	}
	job.Location = house

	var b *Broadcast
	if in.MatchMode == MatchDirect {
		job.ProID = in.ProID
		job.Status = StatusAssigned
	} else {
		job.Status = StatusBroadcastOpen
		b = NewBroadcast(job)
	}

	if err := s.store.CreateJob(ctx, job, b); err != nil {
		return nil, err
	}
	log.Infof("Job %s created (%s, %s)", job.ID, job.MatchMode, job.ServiceID)

	if b != nil {
		evt := NewEvent(EventBroadcastPosted, job)
		evt.BroadcastID = b.ID
		s.notifier.Notify(ctx, evt)
	} else {
		s.notifier.Notify(ctx, NewEvent(EventAssigned, job))
	}
	return job, nil
}

// MarkArrived records the pro reaching the site.
func (s *Service) MarkArrived(ctx context.Context, c user.Caller, jobID string) (*Job, error) {
	j, err := s.store.UpdateJob(ctx, jobID, func(j *Job) error {
		if err := j.requirePro(c); err != nil {
			return err
		}
		if !j.Status.In(StatusAssigned, StatusArrived) {
			return wrongStatus(j, "mark arrived")
		}
		j.Status = StatusArrived
		j.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, NewEvent(EventArrived, j))
	return j, nil
}

type InvoiceInput struct {
	LaborRate    *pricing.Cents     `json:"labor_rate_per_hour"`
	LaborHours   decimal.Decimal    `json:"labor_hours"`
	InvoiceParts []pricing.LineItem `json:"invoice_parts"`
	OtherParts   []pricing.LineItem `json:"other_parts"`
	Notes        string             `json:"notes"`
}

// SaveInvoice replaces the job's invoice and marks it ready. Once payment
// has been requested the status stays put and the locked-in rate is kept.
func (s *Service) SaveInvoice(ctx context.Context, c user.Caller, jobID string, in InvoiceInput) (*Job, error) {
	return s.store.UpdateJob(ctx, jobID, func(j *Job) error {
		if err := j.requirePro(c); err != nil {
			return err
		}
		if !j.Status.In(StatusAssigned, StatusArrived, StatusInvoiceReady, StatusPaymentRequested) {
			return wrongStatus(j, "edit the invoice")
		}

		inv := pricing.Invoice{
			LaborRate:    j.Invoice.LaborRate,
			LaborHours:   in.LaborHours,
			InvoiceParts: in.InvoiceParts,
			OtherParts:   in.OtherParts,
			Notes:        strings.TrimSpace(in.Notes),
		}
		if inv.InvoiceParts == nil {
			inv.InvoiceParts = []pricing.LineItem{}
		}
		if inv.OtherParts == nil {
			inv.OtherParts = []pricing.LineItem{}
		}
		if in.LaborRate != nil && j.Status != StatusPaymentRequested {
			inv.LaborRate = *in.LaborRate
		}
		if err := pricing.ValidateInvoice(inv); err != nil {
			return err
		}

		now := s.now().UTC()
		inv.UpdatedAt = &now
		j.Invoice = inv
		if j.Status != StatusPaymentRequested {
			j.Status = StatusInvoiceReady
		}
		j.UpdatedAt = now
		return nil
	})
}

// RequestPayment locks the labor rate to the pro's current reputation and
// opens the job for payment.
func (s *Service) RequestPayment(ctx context.Context, c user.Caller, jobID string) (*Job, error) {
	if err := requireRole(c, user.RolePro); err != nil {
		return nil, err
	}
	j, err := s.store.PriceJob(ctx, jobID, func(j *Job, score int) error {
		if err := j.requirePro(c); err != nil {
			return err
		}
		if !j.Status.In(StatusAssigned, StatusArrived, StatusInvoiceReady) {
			return wrongStatus(j, "request payment")
		}
		now := s.now().UTC()
		j.Invoice.LaborRate = pricing.LaborRateCents(score)
		j.Invoice.UpdatedAt = &now
		j.Status = StatusPaymentRequested
		j.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt := NewEvent(EventPaymentRequested, j)
	evt.Amount = pricing.ComputeTotals(j.Invoice).Subtotal
	s.notifier.Notify(ctx, evt)
	return j, nil
}

// AddProofPhoto prepends a proof-of-work photo reference.
func (s *Service) AddProofPhoto(ctx context.Context, c user.Caller, jobID, ref string) (*Job, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperr.Validation("photo reference is required")
	}
	return s.store.UpdateJob(ctx, jobID, func(j *Job) error {
		if err := j.requirePro(c); err != nil {
			return err
		}
		j.ProofPhotos = append([]string{ref}, j.ProofPhotos...)
		j.UpdatedAt = s.now().UTC()
		return nil
	})
}

var (
	customerCheckoutStatuses = []Status{StatusInvoiceReady, StatusPaymentRequested}
	proCheckoutStatuses      = []Status{StatusAssigned, StatusArrived, StatusInvoiceReady, StatusPaymentRequested}
)

// MyJobs lists the caller's jobs, newest first.
func (s *Service) MyJobs(ctx context.Context, c user.Caller) ([]Job, error) {
	switch c.Role {
	case user.RoleCustomer:
		return s.store.ListJobs(ctx, JobFilter{CustomerID: c.ID})
	case user.RolePro:
		return s.store.ListJobs(ctx, JobFilter{ProID: c.ID})
	}
	return nil, apperr.Permission(apperr.ReasonWrongRole, "only customers and pros have jobs")
}

// CheckoutNeeded lists the caller's jobs that still need invoicing or
// payment.
func (s *Service) CheckoutNeeded(ctx context.Context, c user.Caller) ([]Job, error) {
	switch c.Role {
	case user.RoleCustomer:
		return s.store.ListJobs(ctx, JobFilter{CustomerID: c.ID, Statuses: customerCheckoutStatuses})
	case user.RolePro:
		return s.store.ListJobs(ctx, JobFilter{ProID: c.ID, Statuses: proCheckoutStatuses})
	}
	return nil, apperr.Permission(apperr.ReasonWrongRole, "only customers and pros have jobs")
}

// AdminJobs lists jobs across all users.
func (s *Service) AdminJobs(ctx context.Context, statuses []Status, limit int) ([]Job, error) {
	return s.store.ListJobs(ctx, JobFilter{Statuses: statuses, Limit: limit})
}
