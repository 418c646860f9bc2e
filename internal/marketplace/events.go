package marketplace

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/pricing"
)

type EventType string

const (
	EventBroadcastPosted  EventType = "job.broadcast_posted"
	EventAssigned         EventType = "job.assigned"
	EventClaimed          EventType = "job.claimed"
	EventArrived          EventType = "job.arrived"
	EventPaymentRequested EventType = "job.payment_requested"
	EventPaid             EventType = "job.paid"
	EventCompleted        EventType = "job.completed"
	EventRated            EventType = "job.rated"
)

// Event describes a job transition for notification fan-out.
type Event struct {
	Type        EventType     `json:"type"`
	JobID       string        `json:"job_id"`
	BroadcastID string        `json:"broadcast_id,omitempty"`
	CustomerID  string        `json:"customer_id"`
	ProID       string        `json:"pro_id,omitempty"`
	Trade       pricing.Trade `json:"trade"`
	ServiceName string        `json:"service_name"`
	Amount      pricing.Cents `json:"amount,omitempty"`
	Rating      *int          `json:"rating,omitempty"`
	At          time.Time     `json:"at"`
}

// NewEvent fills an event from a job.
func NewEvent(t EventType, j *Job) Event {
	return Event{
		Type:        t,
		JobID:       j.ID,
		CustomerID:  j.CustomerID,
		ProID:       j.ProID,
		Trade:       j.Trade,
		ServiceName: j.ServiceName,
		At:          time.Now().UTC(),
	}
}

// Notifier receives job events. Delivery is best effort: a notifier must
// not fail the transition that produced the event.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// Notifiers fans an event out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, evt Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, evt)
		}
	}
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
