package marketplace

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusBroadcastOpen    Status = "broadcast_open"
	StatusAssigned         Status = "assigned"
	StatusArrived          Status = "arrived"
	StatusInvoiceReady     Status = "invoice_ready"
	StatusPaymentRequested Status = "payment_requested"
	StatusPaid             Status = "paid"
	StatusCompleted        Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusBroadcastOpen,
	StatusAssigned,
	StatusArrived,
	StatusInvoiceReady,
	StatusPaymentRequested,
	StatusPaid,
	StatusCompleted,
}

// In reports whether s is one of set.
func (s Status) In(set ...Status) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

type MatchMode string

const (
	MatchDirect    MatchMode = "direct"
	MatchBroadcast MatchMode = "broadcast"
)

// Job is a customer's service request.
type Job struct {
	ID          string        `json:"id"`
	CustomerID  string        `json:"customer_id"`
	ProID       string        `json:"pro_id,omitempty"`
	ServiceID   string        `json:"service_id"`
	ServiceName string        `json:"service_name"`
	Trade       pricing.Trade `json:"trade"`

	Description string         `json:"description"`
	Photos      []string       `json:"photos"`
	Location    location.Point `json:"location"`

	MatchMode   MatchMode  `json:"match_mode"`
	WantAsap    bool       `json:"want_asap"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	Status  Status          `json:"status"`
	Invoice pricing.Invoice `json:"invoice"`

	LastPaymentTotal pricing.Cents `json:"last_payment_total"`
	LastPlatformFee  pricing.Cents `json:"last_platform_fee"`
	LastProPayout    pricing.Cents `json:"last_pro_payout"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`

	ProofPhotos    []string `json:"proof_photos"`
	CustomerRating *int     `json:"customer_rating,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BroadcastStatus string

const (
	BroadcastOpen    BroadcastStatus = "open"
	BroadcastClaimed BroadcastStatus = "claimed"
)

// Broadcast is a claimable posting for a job with no chosen pro.
type Broadcast struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	Trade     pricing.Trade   `json:"trade"`
	Status    BroadcastStatus `json:"status"`
	ClaimedBy string          `json:"claimed_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Posting is an open broadcast together with its job.
type Posting struct {
	Broadcast Broadcast `json:"broadcast"`
	Job       Job       `json:"job"`
}

// JobFilter selects jobs for listing. Empty fields match everything.
type JobFilter struct {
	CustomerID string
	ProID      string
	Statuses   []Status
	Limit      int
}

// SettlementTotals aggregates settled money across all jobs.
type SettlementTotals struct {
	Gross   pricing.Cents `json:"gross"`
	Fees    pricing.Cents `json:"fees"`
	Payouts pricing.Cents `json:"payouts"`
}

// Store persists jobs and broadcasts. Every mutating method applies its
// callback and writes as one atomic unit per job.
type Store interface {
	// CreateJob stores the job and, when b is non-nil, its broadcast.
	CreateJob(ctx context.Context, job *Job, b *Broadcast) error
	GetJob(ctx context.Context, id string) (*Job, error)
	UpdateJob(ctx context.Context, id string, fn func(*Job) error) (*Job, error)
	// PriceJob applies fn with the assigned pro's current score, read
	// under the same lock as the job so no rating lands in between.
	PriceJob(ctx context.Context, id string, fn func(j *Job, proScore int) error) (*Job, error)
	// SettleJob applies fn, then credits the returned txn's amount to the
	// pro's wallet and appends the txn.
	SettleJob(ctx context.Context, id string, fn func(*Job) (*wallet.Txn, error)) (*Job, error)
	// CompleteJob applies fn and increments the pro's completed job count.
	CompleteJob(ctx context.Context, id string, fn func(*Job) error) (*Job, error)
	// RateJob applies fn, which must set CustomerRating, and folds the
	// rating into the pro's reputation.
	RateJob(ctx context.Context, id string, fn func(*Job) error) (*Job, error)

	// ClaimBroadcast atomically marks the broadcast claimed and assigns the
	// job to proID.
	ClaimBroadcast(ctx context.Context, broadcastID, proID string) (*Job, *Broadcast, error)
	GetBroadcast(ctx context.Context, id string) (*Broadcast, error)
	ListOpenPostings(ctx context.Context) ([]Posting, error)

	ListJobs(ctx context.Context, f JobFilter) ([]Job, error)
	CountJobsByStatus(ctx context.Context) (map[Status]int, error)
	SettlementTotals(ctx context.Context) (SettlementTotals, error)
}
