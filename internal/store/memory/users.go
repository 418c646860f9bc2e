package memory

import (
	"context"
	"sort"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

func cloneUser(u *user.User) *user.User {
	c := *u
	c.Profile.Trades = append([]pricing.Trade{}, u.Profile.Trades...)
	if u.LastLocation != nil {
		p := *u.LastLocation
		c.LastLocation = &p
	}
	return &c
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return apperr.Conflict(apperr.ReasonEmailTaken, "email already registered")
	}
	if _, ok := s.users[u.ID]; ok {
		return apperr.Internal("duplicate user id", nil)
	}
	s.users[u.ID] = cloneUser(u)
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return cloneUser(u), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*user.User) error) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	c := cloneUser(u)
	if err := fn(c); err != nil {
		return nil, err
	}
	if c.Email != u.Email {
		if _, taken := s.emails[c.Email]; taken {
			return nil, apperr.Conflict(apperr.ReasonEmailTaken, "email already registered")
		}
		delete(s.emails, u.Email)
		s.emails[c.Email] = id
	}
	s.users[id] = c
	return cloneUser(c), nil
}

func (s *Store) ListUsers(ctx context.Context, role user.Role) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SaveLocation(ctx context.Context, userID string, rep location.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user")
	}
	if rep.Point != nil {
		p := *rep.Point
		rep.Point = &p
		last := p
		u.LastLocation = &last
	}
	s.reports[userID] = rep
	return nil
}

func (s *Store) LastReport(ctx context.Context, userID string) (*location.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[userID]
	if !ok {
		return nil, nil
	}
	if rep.Point != nil {
		p := *rep.Point
		rep.Point = &p
	}
	return &rep, nil
}
