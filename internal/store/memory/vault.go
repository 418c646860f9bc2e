package memory

import (
	"context"
	"sort"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/vault"
)

func clonePin(p *vault.Pin) *vault.Pin {
	c := *p
	if p.LockedUntil != nil {
		t := *p.LockedUntil
		c.LockedUntil = &t
	}
	return &c
}

func (s *Store) GetPin(ctx context.Context, customerID string) (*vault.Pin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pins[customerID]
	if !ok {
		return nil, apperr.NotFound("pin")
	}
	return clonePin(p), nil
}

func (s *Store) CreatePin(ctx context.Context, p *vault.Pin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pins[p.CustomerID]; ok {
		return apperr.Conflict(apperr.ReasonPinAlreadySet, "PIN is already set")
	}
	s.pins[p.CustomerID] = clonePin(p)
	return nil
}

func (s *Store) UpdatePin(ctx context.Context, customerID string, fn func(*vault.Pin) error) (*vault.Pin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pins[customerID]
	if !ok {
		return nil, apperr.NotFound("pin")
	}
	c := clonePin(p)
	if err := fn(c); err != nil {
		return nil, err
	}
	s.pins[customerID] = c
	return clonePin(c), nil
}

func (s *Store) AddMethod(ctx context.Context, m *vault.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.methods[m.ID] = &c
	return nil
}

func (s *Store) ListMethods(ctx context.Context, customerID string) ([]vault.Method, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []vault.Method{}
	for _, m := range s.methods {
		if m.CustomerID == customerID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetMethod(ctx context.Context, customerID, id string) (*vault.Method, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok || m.CustomerID != customerID {
		return nil, apperr.NotFound("payment method")
	}
	c := *m
	return &c, nil
}

func (s *Store) DeleteMethod(ctx context.Context, customerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok || m.CustomerID != customerID {
		return apperr.NotFound("payment method")
	}
	delete(s.methods, id)
	return nil
}
