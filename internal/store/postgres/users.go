package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
)

const userColumns = `id, role, name, email, phone, password_hash, is_active,
	photo_url, trades, trades_locked, score, ratings_count, jobs_done,
	wallet_balance, privacy, last_lat, last_lng, created_at`

func tradesToStrings(ts []pricing.Trade) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, string(t))
	}
	return out
}

func stringsToTrades(ss []string) []pricing.Trade {
	out := make([]pricing.Trade, 0, len(ss))
	for _, s := range ss {
		out = append(out, pricing.Trade(s))
	}
	return out
}

func scanUser(row scanner) (*user.User, error) {
	var (
		u        user.User
		role     string
		trades   []string
		balance  int64
		privacy  []byte
		lat, lng *float64
	)
	err := row.Scan(&u.ID, &role, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Active,
		&u.Profile.PhotoURL, &trades, &u.Profile.TradesLocked, &u.Profile.Score,
		&u.Profile.RatingsCount, &u.Profile.JobsDone, &balance, &privacy, &lat, &lng, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	u.Profile.Trades = stringsToTrades(trades)
	u.Profile.WalletBalance = pricing.Cents(balance)
	if len(privacy) > 0 {
		if err := json.Unmarshal(privacy, &u.Profile.Privacy); err != nil {
			return nil, errors.Wrap(err, "decode privacy")
		}
	}
	if lat != nil && lng != nil {
		u.LastLocation = &location.Point{Latitude: *lat, Longitude: *lng}
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	privacy, err := json.Marshal(u.Profile.Privacy)
	if err != nil {
		return apperr.Internal("encode privacy", err)
	}
	var lat, lng *float64
	if u.LastLocation != nil {
		lat, lng = &u.LastLocation.Latitude, &u.LastLocation.Longitude
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		u.ID, string(u.Role), u.Name, u.Email, u.Phone, u.PasswordHash, u.Active,
		u.Profile.PhotoURL, tradesToStrings(u.Profile.Trades), u.Profile.TradesLocked,
		u.Profile.Score, u.Profile.RatingsCount, u.Profile.JobsDone,
		int64(u.Profile.WalletBalance), privacy, lat, lng, u.CreatedAt)
	return dbErr("create user", err)
}

func (s *Store) UserByID(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("load user", "user", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, notFound("load user", "user", err)
	}
	return u, nil
}

// UpdateUser never writes the wallet balance or location; those change only
// through settlement and location reports.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*user.User) error) (*user.User, error) {
	var out *user.User
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound("lock user", "user", err)
		}
		if err := fn(u); err != nil {
			return err
		}
		privacy, err := json.Marshal(u.Profile.Privacy)
		if err != nil {
			return apperr.Internal("encode privacy", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE users SET role = $2, name = $3, email = $4, phone = $5, password_hash = $6,
				is_active = $7, photo_url = $8, trades = $9, trades_locked = $10, score = $11,
				ratings_count = $12, jobs_done = $13, privacy = $14
			WHERE id = $1`,
			id, string(u.Role), u.Name, u.Email, u.Phone, u.PasswordHash, u.Active,
			u.Profile.PhotoURL, tradesToStrings(u.Profile.Trades), u.Profile.TradesLocked,
			u.Profile.Score, u.Profile.RatingsCount, u.Profile.JobsDone, privacy)
		if err != nil {
			return dbErr("update user", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context, role user.Role) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE $1 = '' OR role = $1
		ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, dbErr("list users", err)
	}
	defer rows.Close()

	out := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbErr("scan user", err)
		}
		out = append(out, *u)
	}
	return out, dbErr("list users", rows.Err())
}

func (s *Store) SaveLocation(ctx context.Context, userID string, rep location.Report) error {
	var lat, lng *float64
	if rep.Point != nil {
		lat, lng = &rep.Point.Latitude, &rep.Point.Longitude
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET last_lat = COALESCE($2, last_lat), last_lng = COALESCE($3, last_lng)
			WHERE id = $1`, userID, lat, lng)
		if err != nil {
			return dbErr("save location", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("user")
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO location_reports (user_id, lat, lng, denied, reported_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE
			SET lat = EXCLUDED.lat, lng = EXCLUDED.lng, denied = EXCLUDED.denied,
				reported_at = EXCLUDED.reported_at`,
			userID, lat, lng, rep.Denied, rep.ReportedAt)
		return dbErr("save location report", err)
	})
}

// LastReport returns nil when the user never reported a location.
func (s *Store) LastReport(ctx context.Context, userID string) (*location.Report, error) {
	var (
		rep      location.Report
		lat, lng *float64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT lat, lng, denied, reported_at FROM location_reports WHERE user_id = $1`,
		userID).Scan(&lat, &lng, &rep.Denied, &rep.ReportedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("load location report", err)
	}
	if lat != nil && lng != nil {
		rep.Point = &location.Point{Latitude: *lat, Longitude: *lng}
	}
	return &rep, nil
}
