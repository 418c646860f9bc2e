package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

const jobColumns = `j.id, j.customer_id, COALESCE(j.pro_id, ''), j.service_id, j.service_name,
	j.trade, j.description, j.photos, j.lat, j.lng, j.match_mode, j.want_asap,
	j.scheduled_at, j.status, j.invoice, j.last_payment_total, j.last_platform_fee,
	j.last_pro_payout, j.paid_at, j.proof_photos, j.customer_rating, j.created_at, j.updated_at`

const broadcastColumns = `b.id, b.job_id, b.trade, b.status, COALESCE(b.claimed_by, ''), b.created_at`

// jobRow holds the columns that need converting after a scan.
type jobRow struct {
	job                 marketplace.Job
	trade, mode, status string
	invoice             []byte
	total, fee, payout  int64
}

func (r *jobRow) dest() []any {
	j := &r.job
	return []any{&j.ID, &j.CustomerID, &j.ProID, &j.ServiceID, &j.ServiceName,
		&r.trade, &j.Description, &j.Photos, &j.Location.Latitude, &j.Location.Longitude,
		&r.mode, &j.WantAsap, &j.ScheduledAt, &r.status, &r.invoice,
		&r.total, &r.fee, &r.payout, &j.PaidAt, &j.ProofPhotos, &j.CustomerRating,
		&j.CreatedAt, &j.UpdatedAt}
}

func (r *jobRow) finish() (*marketplace.Job, error) {
	j := r.job
	j.Trade = pricing.Trade(r.trade)
	j.MatchMode = marketplace.MatchMode(r.mode)
	j.Status = marketplace.Status(r.status)
	j.LastPaymentTotal = pricing.Cents(r.total)
	j.LastPlatformFee = pricing.Cents(r.fee)
	j.LastProPayout = pricing.Cents(r.payout)
	if len(r.invoice) > 0 {
		if err := json.Unmarshal(r.invoice, &j.Invoice); err != nil {
			return nil, errors.Wrap(err, "decode invoice")
		}
	}
	return &j, nil
}

func scanJob(row scanner) (*marketplace.Job, error) {
	var r jobRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.finish()
}

type broadcastRow struct {
	b             marketplace.Broadcast
	trade, status string
}

func (r *broadcastRow) dest() []any {
	return []any{&r.b.ID, &r.b.JobID, &r.trade, &r.status, &r.b.ClaimedBy, &r.b.CreatedAt}
}

func (r *broadcastRow) finish() *marketplace.Broadcast {
	b := r.b
	b.Trade = pricing.Trade(r.trade)
	b.Status = marketplace.BroadcastStatus(r.status)
	return &b
}

func (s *Store) CreateJob(ctx context.Context, job *marketplace.Job, b *marketplace.Broadcast) error {
	invoice, err := json.Marshal(job.Invoice)
	if err != nil {
		return apperr.Internal("encode invoice", err)
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO jobs (id, customer_id, pro_id, service_id, service_name, trade,
				description, photos, lat, lng, match_mode, want_asap, scheduled_at, status,
				invoice, last_payment_total, last_platform_fee, last_pro_payout, paid_at,
				proof_photos, customer_rating, created_at, updated_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23)`,
			job.ID, job.CustomerID, job.ProID, job.ServiceID, job.ServiceName, string(job.Trade),
			job.Description, nonNil(job.Photos), job.Location.Latitude, job.Location.Longitude,
			string(job.MatchMode), job.WantAsap, job.ScheduledAt, string(job.Status),
			invoice, int64(job.LastPaymentTotal), int64(job.LastPlatformFee),
			int64(job.LastProPayout), job.PaidAt, nonNil(job.ProofPhotos), job.CustomerRating,
			job.CreatedAt, job.UpdatedAt)
		if err != nil {
			return dbErr("create job", err)
		}
		if b == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO broadcasts (id, job_id, trade, status, claimed_by, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
			b.ID, b.JobID, string(b.Trade), string(b.Status), b.ClaimedBy, b.CreatedAt)
		return dbErr("create broadcast", err)
	})
}

func (s *Store) GetJob(ctx context.Context, id string) (*marketplace.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, id))
	if err != nil {
		return nil, notFound("load job", "job", err)
	}
	return j, nil
}

func lockJob(ctx context.Context, tx pgx.Tx, id string) (*marketplace.Job, error) {
	j, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound("lock job", "job", err)
	}
	return j, nil
}

// writeJob persists every mutable job column.
func writeJob(ctx context.Context, tx pgx.Tx, j *marketplace.Job) error {
	invoice, err := json.Marshal(j.Invoice)
	if err != nil {
		return apperr.Internal("encode invoice", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE jobs SET pro_id = NULLIF($2, ''), description = $3, photos = $4,
			want_asap = $5, scheduled_at = $6, status = $7, invoice = $8,
			last_payment_total = $9, last_platform_fee = $10, last_pro_payout = $11,
			paid_at = $12, proof_photos = $13, customer_rating = $14, updated_at = $15
		WHERE id = $1`,
		j.ID, j.ProID, j.Description, nonNil(j.Photos), j.WantAsap, j.ScheduledAt,
		string(j.Status), invoice, int64(j.LastPaymentTotal), int64(j.LastPlatformFee),
		int64(j.LastProPayout), j.PaidAt, nonNil(j.ProofPhotos), j.CustomerRating, j.UpdatedAt)
	return dbErr("update job", err)
}

// mutateJob locks the job, applies fn, runs after with the result and
// writes the job back, all in one transaction.
func (s *Store) mutateJob(ctx context.Context, id string, fn func(*marketplace.Job) error,
	after func(pgx.Tx, *marketplace.Job) error) (*marketplace.Job, error) {
	var out *marketplace.Job
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		j, err := lockJob(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(j); err != nil {
			return err
		}
		if after != nil {
			if err := after(tx, j); err != nil {
				return err
			}
		}
		if err := writeJob(ctx, tx, j); err != nil {
			return err
		}
		out = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateJob(ctx context.Context, id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	return s.mutateJob(ctx, id, fn, nil)
}

// PriceJob holds the pro's row FOR SHARE while fn runs; RateJob takes it
// FOR UPDATE, so the two serialize.
func (s *Store) PriceJob(ctx context.Context, id string, fn func(*marketplace.Job, int) error) (*marketplace.Job, error) {
	var out *marketplace.Job
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		j, err := lockJob(ctx, tx, id)
		if err != nil {
			return err
		}
		score := 0
		if j.ProID != "" {
			err := tx.QueryRow(ctx, `SELECT score FROM users WHERE id = $1 FOR SHARE`, j.ProID).Scan(&score)
			if err != nil {
				return notFound("lock pro score", "pro", err)
			}
		}
		if err := fn(j, score); err != nil {
			return err
		}
		if err := writeJob(ctx, tx, j); err != nil {
			return err
		}
		out = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SettleJob relies on the unique job_id in wallet_txns, so a second
// settlement of the same job fails with already_paid.
func (s *Store) SettleJob(ctx context.Context, id string, fn func(*marketplace.Job) (*wallet.Txn, error)) (*marketplace.Job, error) {
	var txn *wallet.Txn
	apply := func(j *marketplace.Job) error {
		var err error
		txn, err = fn(j)
		return err
	}
	return s.mutateJob(ctx, id, apply, func(tx pgx.Tx, j *marketplace.Job) error {
		if txn == nil {
			return apperr.Internal("settlement produced no payout", nil)
		}
		if err := wallet.ValidateCredit(txn.Amount); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO wallet_txns (id, pro_id, job_id, type, amount, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			txn.ID, txn.ProID, txn.JobID, string(txn.Type), int64(txn.Amount), txn.Note, txn.CreatedAt)
		if err != nil {
			return dbErr("insert wallet txn", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE users SET wallet_balance = wallet_balance + $2 WHERE id = $1`,
			txn.ProID, int64(txn.Amount))
		if err != nil {
			return dbErr("credit wallet", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("pro")
		}
		return nil
	})
}

func (s *Store) CompleteJob(ctx context.Context, id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	return s.mutateJob(ctx, id, fn, func(tx pgx.Tx, j *marketplace.Job) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET jobs_done = jobs_done + 1 WHERE id = $1`, j.ProID)
		if err != nil {
			return dbErr("count completed job", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("pro")
		}
		return nil
	})
}

func (s *Store) RateJob(ctx context.Context, id string, fn func(*marketplace.Job) error) (*marketplace.Job, error) {
	return s.mutateJob(ctx, id, fn, func(tx pgx.Tx, j *marketplace.Job) error {
		if j.CustomerRating == nil {
			return apperr.Internal("rating not set", nil)
		}
		var p user.Profile
		err := tx.QueryRow(ctx, `
			SELECT score, ratings_count FROM users WHERE id = $1 FOR UPDATE`,
			j.ProID).Scan(&p.Score, &p.RatingsCount)
		if err != nil {
			return notFound("lock pro", "pro", err)
		}
		user.ApplyRating(&p, *j.CustomerRating)
		_, err = tx.Exec(ctx, `
			UPDATE users SET score = $2, ratings_count = $3 WHERE id = $1`,
			j.ProID, p.Score, p.RatingsCount)
		return dbErr("apply rating", err)
	})
}

func (s *Store) ClaimBroadcast(ctx context.Context, broadcastID, proID string) (*marketplace.Job, *marketplace.Broadcast, error) {
	var (
		job *marketplace.Job
		bc  *marketplace.Broadcast
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var r broadcastRow
		err := tx.QueryRow(ctx, `SELECT `+broadcastColumns+` FROM broadcasts b WHERE b.id = $1 FOR UPDATE`,
			broadcastID).Scan(r.dest()...)
		if err != nil {
			return notFound("lock broadcast", "broadcast", err)
		}
		b := r.finish()
		if b.Status != marketplace.BroadcastOpen {
			return apperr.Conflict(apperr.ReasonAlreadyClaimed, "someone already claimed this job")
		}
		j, err := lockJob(ctx, tx, b.JobID)
		if err != nil {
			return err
		}
		if j.ProID != "" || j.Status != marketplace.StatusBroadcastOpen {
			return apperr.Conflict(apperr.ReasonAlreadyAssigned, "this job already has a pro")
		}

		b.Status = marketplace.BroadcastClaimed
		b.ClaimedBy = proID
		if _, err := tx.Exec(ctx, `
			UPDATE broadcasts SET status = $2, claimed_by = $3 WHERE id = $1`,
			b.ID, string(b.Status), proID); err != nil {
			return dbErr("claim broadcast", err)
		}
		j.ProID = proID
		j.Status = marketplace.StatusAssigned
		j.UpdatedAt = s.now().UTC()
		if err := writeJob(ctx, tx, j); err != nil {
			return err
		}
		job, bc = j, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return job, bc, nil
}

func (s *Store) GetBroadcast(ctx context.Context, id string) (*marketplace.Broadcast, error) {
	var r broadcastRow
	err := s.pool.QueryRow(ctx, `SELECT `+broadcastColumns+` FROM broadcasts b WHERE b.id = $1`, id).Scan(r.dest()...)
	if err != nil {
		return nil, notFound("load broadcast", "broadcast", err)
	}
	return r.finish(), nil
}

// ListOpenPostings returns open broadcasts with their jobs, newest first.
func (s *Store) ListOpenPostings(ctx context.Context) ([]marketplace.Posting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+broadcastColumns+`, `+jobColumns+`
		FROM broadcasts b
		JOIN jobs j ON j.id = b.job_id
		WHERE b.status = 'open' AND j.status = 'broadcast_open'
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, dbErr("list postings", err)
	}
	defer rows.Close()

	var out []marketplace.Posting
	for rows.Next() {
		var (
			br broadcastRow
			jr jobRow
		)
		if err := rows.Scan(append(br.dest(), jr.dest()...)...); err != nil {
			return nil, dbErr("scan posting", err)
		}
		j, err := jr.finish()
		if err != nil {
			return nil, dbErr("scan posting", err)
		}
		out = append(out, marketplace.Posting{Broadcast: *br.finish(), Job: *j})
	}
	return out, dbErr("list postings", rows.Err())
}

// ListJobs returns matching jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, f marketplace.JobFilter) ([]marketplace.Job, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CustomerID != "" {
		where = append(where, "j.customer_id = "+arg(f.CustomerID))
	}
	if f.ProID != "" {
		where = append(where, "j.pro_id = "+arg(f.ProID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		where = append(where, "j.status = ANY("+arg(statuses)+")")
	}

	q := `SELECT ` + jobColumns + ` FROM jobs j`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY j.created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, dbErr("list jobs", err)
	}
	defer rows.Close()

	out := []marketplace.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, dbErr("scan job", err)
		}
		out = append(out, *j)
	}
	return out, dbErr("list jobs", rows.Err())
}

func (s *Store) CountJobsByStatus(ctx context.Context) (map[marketplace.Status]int, error) {
	counts := make(map[marketplace.Status]int, len(marketplace.Statuses))
	for _, st := range marketplace.Statuses {
		counts[st] = 0
	}
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, dbErr("count jobs", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			st string
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, dbErr("scan job count", err)
		}
		counts[marketplace.Status(st)] = n
	}
	return counts, dbErr("count jobs", rows.Err())
}

// SettlementTotals sums only jobs that have a payout on record.
func (s *Store) SettlementTotals(ctx context.Context) (marketplace.SettlementTotals, error) {
	var gross, fees, payouts int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(j.last_payment_total), 0)::BIGINT,
			COALESCE(SUM(j.last_platform_fee), 0)::BIGINT,
			COALESCE(SUM(j.last_pro_payout), 0)::BIGINT
		FROM jobs j
		JOIN wallet_txns w ON w.job_id = j.id`).Scan(&gross, &fees, &payouts)
	if err != nil {
		return marketplace.SettlementTotals{}, dbErr("settlement totals", err)
	}
	return marketplace.SettlementTotals{
		Gross:   pricing.Cents(gross),
		Fees:    pricing.Cents(fees),
		Payouts: pricing.Cents(payouts),
	}, nil
}

