package postgres

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/portfolio"
)

const postColumns = `id, pro_id, caption, photos, likes, created_at`

func scanPost(row scanner) (*portfolio.Post, error) {
	var p portfolio.Post
	if err := row.Scan(&p.ID, &p.ProID, &p.Caption, &p.Photos, &p.Likes, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, p *portfolio.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO portfolio_posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.ProID, p.Caption, nonNil(p.Photos), p.Likes, p.CreatedAt)
	return dbErr("create post", err)
}

// ListPosts returns a pro's posts, newest first.
func (s *Store) ListPosts(ctx context.Context, proID string) ([]portfolio.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+` FROM portfolio_posts
		WHERE pro_id = $1
		ORDER BY created_at DESC`, proID)
	if err != nil {
		return nil, dbErr("list posts", err)
	}
	defer rows.Close()

	out := []portfolio.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, dbErr("scan post", err)
		}
		out = append(out, *p)
	}
	return out, dbErr("list posts", rows.Err())
}

func (s *Store) LikePost(ctx context.Context, id string) (*portfolio.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `
		UPDATE portfolio_posts SET likes = likes + 1 WHERE id = $1
		RETURNING `+postColumns, id))
	if err != nil {
		return nil, notFound("like post", "post", err)
	}
	return p, nil
}

func (s *Store) AddNotification(ctx context.Context, n *notifications.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, job_id, created_at, read_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.UserID, n.Kind, n.Title, n.Body, n.JobID, n.CreatedAt, n.ReadAt)
	return dbErr("add notification", err)
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]notifications.Notification, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, kind, title, body, COALESCE(job_id, ''), read_at, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $3`, userID, unreadOnly, lim)
	if err != nil {
		return nil, dbErr("list notifications", err)
	}
	defer rows.Close()

	out := []notifications.Notification{}
	for rows.Next() {
		var n notifications.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.JobID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, dbErr("scan notification", err)
		}
		out = append(out, n)
	}
	return out, dbErr("list notifications", rows.Err())
}

func (s *Store) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2`, id, userID, at)
	if err != nil {
		return dbErr("mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}
