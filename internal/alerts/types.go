package alerts

import (
	"time"

	"github.com/sudo-init-do/fixhub/internal/marketplace"
)

// Task type constants
const (
	TaskJobEvent     = "job:event"
	TaskWelcomeEmail = "email:welcome"
	TaskAdminAlert   = "email:admin_alert"
)

// Queue names and their priorities on the worker.
const (
	QueueEvents = "events"
	QueueEmails = "emails"
	QueueAlerts = "alerts"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// JobEventPayload carries one job transition to the worker.
type JobEventPayload struct {
	Event  marketplace.Event `json:"event"`
	AppURL string            `json:"app_url"`
	SentAt time.Time         `json:"sent_at"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Admin alert payload
type AdminAlertPayload struct {
	Severity string        `json:"severity"` // info|warning|critical
	Message  string        `json:"message"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
