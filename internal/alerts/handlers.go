package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Users is what the worker needs to resolve recipients.
type Users interface {
	UserByID(ctx context.Context, id string) (*user.User, error)
	ListUsers(ctx context.Context, role user.Role) ([]user.User, error)
}

// Handlers processes queued tasks: job events become inbox notifications
// plus best-effort email.
type Handlers struct {
	users  Users
	inbox  notifications.Store
	mailer Mailer
}

func NewHandlers(users Users, inbox notifications.Store, mailer Mailer) *Handlers {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Handlers{users: users, inbox: inbox, mailer: mailer}
}

// notificationID is stable per event and recipient so a retried task does
// not duplicate inbox entries.
func notificationID(evt marketplace.Event, userID string) string {
	key := fmt.Sprintf("%s|%s|%s|%d", evt.Type, evt.JobID, userID, evt.At.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func (h *Handlers) recipients(ctx context.Context, evt marketplace.Event, a Audience) ([]user.User, error) {
	one := func(id string) ([]user.User, error) {
		if id == "" {
			return nil, nil
		}
		u, err := h.users.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []user.User{*u}, nil
	}
	switch a {
	case ToCustomer:
		return one(evt.CustomerID)
	case ToPro:
		return one(evt.ProID)
	case ToTrade:
		pros, err := h.users.ListUsers(ctx, user.RolePro)
		if err != nil {
			return nil, err
		}
		out := pros[:0]
		for i := range pros {
			if pros[i].Active && pros[i].HasTrade(evt.Trade) {
				out = append(out, pros[i])
			}
		}
		return out, nil
	}
	return nil, nil
}

// HandleJobEvent stores a notification for every recipient of the event
// and emails them. Storage errors fail the task so it is retried.
func (h *Handlers) HandleJobEvent(ctx context.Context, t *asynq.Task) error {
	var p JobEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode job event: %v: %w", err, asynq.SkipRetry)
	}
	evt := p.Event
	for _, msg := range Render(evt, p.AppURL) {
		to, err := h.recipients(ctx, evt, msg.Audience)
		if err != nil {
			return err
		}
		for _, u := range to {
			n := &notifications.Notification{
				ID:        notificationID(evt, u.ID),
				UserID:    u.ID,
				Kind:      string(evt.Type),
				Title:     msg.Title,
				Body:      msg.Body,
				JobID:     evt.JobID,
				CreatedAt: evt.At,
			}
			if err := h.inbox.AddNotification(ctx, n); err != nil {
				return err
			}
			if u.Email == "" {
				continue
			}
			if err := h.mailer.Send(ctx, u.Email, msg.Title, msg.Body); err != nil {
				log.Warnf("Email %s to %s failed: %v", evt.Type, u.ID, err)
			}
		}
	}
	log.Debugf("Processed %s for job %s", evt.Type, evt.JobID)
	return nil
}

func (h *Handlers) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode welcome email: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.mailer.Send(ctx, p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Errorf("WelcomeEmail send failed: %v", err)
		return err
	}
	log.Infof("WelcomeEmail sent -> user=%s", p.UserID)
	return nil
}

func (h *Handlers) HandleAdminAlert(ctx context.Context, t *asynq.Task) error {
	var p AdminAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode admin alert: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.mailer.Send(ctx, p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Errorf("AdminAlert send failed: %v", err)
		return err
	}
	log.Infof("AdminAlert sent -> severity=%s", p.Severity)
	return nil
}
