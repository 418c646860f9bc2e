package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/fixhub/internal/marketplace"
)

// TaskClient is the part of *asynq.Client the enqueuer uses.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer turns job events and account emails into queued tasks. It
// satisfies marketplace.Notifier.
type Enqueuer struct {
	client     TaskClient
	appURL     string
	adminEmail string
}

func NewEnqueuer(client TaskClient, appURL, adminEmail string) *Enqueuer {
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return &Enqueuer{
		client:     client,
		appURL:     strings.TrimRight(appURL, "/"),
		adminEmail: adminEmail,
	}
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType, queue string, payload any, opts ...asynq.Option) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", taskType, err)
	}
	opts = append(opts, asynq.Queue(queue))
	_, err = e.client.EnqueueContext(ctx, asynq.NewTask(taskType, b), opts...)
	return err
}

// Notify queues a job event. Failures are logged, never returned.
func (e *Enqueuer) Notify(ctx context.Context, evt marketplace.Event) {
	payload := JobEventPayload{Event: evt, AppURL: e.appURL, SentAt: time.Now().UTC()}
	err := e.enqueue(ctx, TaskJobEvent, QueueEvents, payload, asynq.MaxRetry(5))
	if err != nil {
		log.Errorf("Enqueue %s for job %s: %v", evt.Type, evt.JobID, err)
		return
	}
	log.Debugf("Queued %s for job %s", evt.Type, evt.JobID)
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func (e *Enqueuer) EnqueueWelcomeEmail(ctx context.Context, userID, email, name string) error {
	subject := fmt.Sprintf("Welcome to FixHub, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining FixHub.\n\nOpen FixHub: %s\n\nIf the link doesn't work, copy and paste the URL above.", name, e.appURL)

	payload := WelcomeEmailPayload{
		UserID:   userID,
		Name:     name,
		Email:    email,
		Envelope: EmailEnvelope{To: email, Subject: subject, Body: body},
		SentAt:   time.Now().UTC(),
	}
	return e.enqueue(ctx, TaskWelcomeEmail, QueueEmails, payload)
}

// AdminAlert queues an email to the operations address. It is a no-op when
// no admin address is configured.
func (e *Enqueuer) AdminAlert(ctx context.Context, severity, message string) {
	if e.adminEmail == "" {
		log.Warnf("Admin alert (%s) with no admin email set: %s", severity, message)
		return
	}
	payload := AdminAlertPayload{
		Severity: severity,
		Message:  message,
		Envelope: EmailEnvelope{
			To:      e.adminEmail,
			Subject: "[FixHub " + severity + "] Admin Alert",
			Body:    message,
		},
		SentAt: time.Now().UTC(),
	}
	if err := e.enqueue(ctx, TaskAdminAlert, QueueAlerts, payload); err != nil {
		log.Errorf("Enqueue admin alert: %v", err)
	}
}
