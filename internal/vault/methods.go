package vault

import (
	"context"

	"github.com/google/uuid"

	"github.com/sudo-init-do/fixhub/internal/user"
)

// AddMethod validates a card and stores its last four digits, brand and
// expiry.
func (s *Service) AddMethod(ctx context.Context, c user.Caller, in CardInput) (*Method, error) {
	if err := requireCustomer(c); err != nil {
		return nil, err
	}
	m, err := ValidateCard(in, s.now())
	if err != nil {
		return nil, err
	}
	m.ID = uuid.New().String()
	m.CustomerID = c.ID
	m.CreatedAt = s.now().UTC()
	if err := s.store.AddMethod(ctx, &m); err != nil {
		return nil, err
	}
	log.Debugf("Customer %s added %s ending %s", c.ID, m.Brand, m.Last4)
	return &m, nil
}

func (s *Service) Methods(ctx context.Context, c user.Caller) ([]Method, error) {
	if err := requireCustomer(c); err != nil {
		return nil, err
	}
	return s.store.ListMethods(ctx, c.ID)
}

// Method returns one of the caller's methods.
func (s *Service) Method(ctx context.Context, c user.Caller, id string) (*Method, error) {
	if err := requireCustomer(c); err != nil {
		return nil, err
	}
	return s.store.GetMethod(ctx, c.ID, id)
}

func (s *Service) RemoveMethod(ctx context.Context, c user.Caller, id string) error {
	if err := requireCustomer(c); err != nil {
		return err
	}
	return s.store.DeleteMethod(ctx, c.ID, id)
}
