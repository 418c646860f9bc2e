package memory

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/portfolio"
)

func clonePost(p *portfolio.Post) *portfolio.Post {
	c := *p
	c.Photos = cloneStrings(p.Photos)
	return &c
}

func (s *Store) CreatePost(ctx context.Context, p *portfolio.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, clonePost(p))
	return nil
}

// ListPosts returns a pro's posts, newest first.
func (s *Store) ListPosts(ctx context.Context, proID string) ([]portfolio.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []portfolio.Post{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		if s.posts[i].ProID == proID {
			out = append(out, *clonePost(s.posts[i]))
		}
	}
	return out, nil
}

func (s *Store) LikePost(ctx context.Context, id string) (*portfolio.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			p.Likes++
			return clonePost(p), nil
		}
	}
	return nil, apperr.NotFound("post")
}

func (s *Store) AddNotification(ctx context.Context, n *notifications.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.inbox {
		if have.ID == n.ID {
			return nil
		}
	}
	c := *n
	s.inbox = append(s.inbox, &c)
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]notifications.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []notifications.Notification{}
	for i := len(s.inbox) - 1; i >= 0; i-- {
		n := s.inbox[i]
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.inbox {
		if n.ID == id && n.UserID == userID {
			if n.ReadAt == nil {
				t := at
				n.ReadAt = &t
			}
			return nil
		}
	}
	return apperr.NotFound("notification")
}
