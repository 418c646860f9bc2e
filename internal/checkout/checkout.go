// Package checkout sequences a customer's payment: gate on the job's
// status and the unlocked vault, charge the processor, then settle.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/payments"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/vault"
)

// Jobs is the slice of the lifecycle checkout needs.
type Jobs interface {
	Job(ctx context.Context, c user.Caller, id string) (*marketplace.Job, error)
	MarkPaid(ctx context.Context, c user.Caller, jobID string, charged pricing.Cents) (*marketplace.Job, error)
}

// Vault is the slice of the payment-method vault checkout needs.
type Vault interface {
	CheckSession(c user.Caller, token string) error
	Method(ctx context.Context, c user.Caller, id string) (*vault.Method, error)
}

// Alerter raises operator alerts.
type Alerter interface {
	AdminAlert(ctx context.Context, severity, message string)
}

type Orchestrator struct {
	jobs      Jobs
	vault     Vault
	processor payments.Processor
	alerter   Alerter
	timeout   time.Duration
}

func NewOrchestrator(jobs Jobs, v Vault, processor payments.Processor, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Orchestrator{jobs: jobs, vault: v, processor: processor, timeout: timeout}
}

// SetAlerter makes a charge that could not be settled page an operator.
func (o *Orchestrator) SetAlerter(a Alerter) { o.alerter = a }

type PayInput struct {
	MethodID   string `json:"method_id"`
	VaultToken string `json:"-"`
}

// Receipt is what the customer sees after paying.
type Receipt struct {
	Job      *marketplace.Job `json:"job"`
	ChargeID string           `json:"charge_id"`
	Totals   pricing.Totals   `json:"totals"`
	Method   string           `json:"method"`
}

// IdempotencyKey identifies one charge of a job's subtotal with a method.
// An invoice edit changes the amount and so the key.
func IdempotencyKey(jobID, methodID string, amount pricing.Cents) string {
	return fmt.Sprintf("%s:%s:%d", jobID, methodID, int64(amount))
}

func chargeError(err error) error {
	if errors.Is(err, payments.ErrDeclined) {
		e := apperr.Collaborator(apperr.Payments, apperr.ReasonDeclined, err).(*apperr.Error)
		e.Msg = "card declined, try another payment method"
		return e
	}
	return apperr.Collaborator(apperr.Payments, apperr.ReasonUnavailable, err)
}

// Pay charges the exact invoice subtotal to the chosen method and settles
// the job. When the charge fails nothing about the job changes.
func (o *Orchestrator) Pay(ctx context.Context, c user.Caller, jobID string, in PayInput) (*Receipt, error) {
	job, err := o.jobs.Job(ctx, c, jobID)
	if err != nil {
		return nil, err
	}
	if err := marketplace.CheckPayable(job, c); err != nil {
		return nil, err
	}
	if err := o.vault.CheckSession(c, in.VaultToken); err != nil {
		return nil, err
	}
	if in.MethodID == "" {
		return nil, apperr.Validation("choose a payment method")
	}
	method, err := o.vault.Method(ctx, c, in.MethodID)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(job.Invoice)
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	charge, err := o.processor.Charge(cctx, payments.ChargeRequest{
		MethodID:       method.ID,
		CustomerID:     c.ID,
		Amount:         totals.Subtotal,
		Description:    fmt.Sprintf("%s (job %s)", job.ServiceName, job.ID),
		IdempotencyKey: IdempotencyKey(job.ID, method.ID, totals.Subtotal),
	})
	if err != nil {
		log.Infof("Charge for job %s failed: %v", job.ID, err)
		return nil, chargeError(err)
	}
	if charge.Amount != totals.Subtotal {
		err := fmt.Errorf("charge %s captured %v, expected %v", charge.ID, charge.Amount, totals.Subtotal)
		o.alert(ctx, fmt.Sprintf("Job %s charge amount mismatch: %v", job.ID, err))
		return nil, apperr.Collaborator(apperr.Payments, apperr.ReasonUnavailable, err)
	}

	// Settle exactly what was captured; MarkPaid refuses if the invoice
	// moved since.
	paid, err := o.jobs.MarkPaid(ctx, c, job.ID, charge.Amount)
	if err != nil {
		o.alert(ctx, fmt.Sprintf("Job %s charged (%s, %v) but settlement failed: %v", job.ID, charge.ID, charge.Amount, err))
		return nil, err
	}
	return &Receipt{
		Job:      paid,
		ChargeID: charge.ID,
		Totals:   totals,
		Method:   fmt.Sprintf("%s •••• %s", method.Brand, method.Last4),
	}, nil
}

func (o *Orchestrator) alert(ctx context.Context, msg string) {
	log.Error(msg)
	if o.alerter != nil {
		o.alerter.AdminAlert(ctx, "critical", msg)
	}
}
