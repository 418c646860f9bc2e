package marketplace

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/user"
)

const defaultCollaboratorTimeout = 10 * time.Second

// UserReader looks up accounts referenced by jobs.
type UserReader interface {
	UserByID(ctx context.Context, id string) (*user.User, error)
}

// Service owns job lifecycle transitions.
type Service struct {
	store    Store
	users    UserReader
	locator  location.Resolver
	notifier Notifier

	now     func() time.Time
	tz      *time.Location
	timeout time.Duration
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimezone sets the zone scheduled dates and times are read in.
func WithTimezone(loc *time.Location) Option {
	return func(s *Service) { s.tz = loc }
}

// WithCollaboratorTimeout bounds calls to the location resolver.
func WithCollaboratorTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(store Store, users UserReader, locator location.Resolver, notifier Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &Service{
		store:    store,
		users:    users,
		locator:  locator,
		notifier: notifier,
		now:      time.Now,
		tz:       time.UTC,
		timeout:  defaultCollaboratorTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func requireRole(c user.Caller, role user.Role) error {
	if c.Role != role {
		return apperr.Permission(apperr.ReasonWrongRole, "only a "+string(role)+" can do this")
	}
	return nil
}

func (j *Job) requireCustomer(c user.Caller) error {
	if err := requireRole(c, user.RoleCustomer); err != nil {
		return err
	}
	if j.CustomerID != c.ID {
		return apperr.Permission(apperr.ReasonNotOwner, "not your job")
	}
	return nil
}

func (j *Job) requirePro(c user.Caller) error {
	if err := requireRole(c, user.RolePro); err != nil {
		return err
	}
	if j.ProID == "" || j.ProID != c.ID {
		return apperr.Permission(apperr.ReasonNotOwner, "not the assigned pro")
	}
	return nil
}

func wrongStatus(j *Job, action string) error {
	return apperr.Conflict(apperr.ReasonWrongStatus, "cannot "+action+" while job is "+string(j.Status))
}

// Job returns a job visible to the caller: its customer, its pro or an
// admin.
func (s *Service) Job(ctx context.Context, c user.Caller, id string) (*Job, error) {
	j, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Role == user.RoleAdmin || j.CustomerID == c.ID || (j.ProID != "" && j.ProID == c.ID) {
		return j, nil
	}
	return nil, apperr.Permission(apperr.ReasonNotOwner, "not your job")
}
