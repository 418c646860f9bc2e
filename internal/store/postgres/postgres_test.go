package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/db"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/store/postgres"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/vault"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

// openStore connects to FIXHUB_TEST_DATABASE_URL and empties every table.
// The tests are skipped when it is unset.
func openStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("FIXHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FIXHUB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Init(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE notifications, portfolio_posts, payment_methods,
		vault_pins, wallet_txns, broadcasts, jobs, location_reports, users CASCADE`)
	require.NoError(t, err)
	return postgres.New(pool)
}

var epoch = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

func addUser(t *testing.T, st *postgres.Store, role user.Role, trades ...pricing.Trade) *user.User {
	t.Helper()
	u := &user.User{
		ID:     uuid.NewString(),
		Role:   role,
		Name:   string(role) + " " + uuid.NewString()[:4],
		Email:  uuid.NewString() + "@example.com",
		Phone:  "5550001111",
		Active: true,
		Profile: user.Profile{
			Trades:  trades,
			Privacy: user.DefaultPrivacy,
		},
		CreatedAt: epoch,
	}
	if role == user.RolePro {
		u.Profile.Score = 85
		u.Profile.RatingsCount = 1
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func addBroadcastJob(t *testing.T, st *postgres.Store, customerID string) (*marketplace.Job, *marketplace.Broadcast) {
	t.Helper()
	j := &marketplace.Job{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		ServiceID:   "leak-repair",
		ServiceName: "Leak repair",
		Trade:       pricing.Plumbing,
		Location:    location.Point{Latitude: 37.77, Longitude: -122.42},
		MatchMode:   marketplace.MatchBroadcast,
		Status:      marketplace.StatusBroadcastOpen,
		CreatedAt:   epoch,
		UpdatedAt:   epoch,
	}
	b := &marketplace.Broadcast{
		ID:        uuid.NewString(),
		JobID:     j.ID,
		Trade:     j.Trade,
		Status:    marketplace.BroadcastOpen,
		CreatedAt: epoch,
	}
	require.NoError(t, st.CreateJob(context.Background(), j, b))
	return j, b
}

func TestUsers(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	pro := addUser(t, st, user.RolePro, pricing.Plumbing)
	dup := *pro
	dup.ID = uuid.NewString()
	err := st.CreateUser(ctx, &dup)
	assert.True(t, apperr.HasReason(err, apperr.ReasonEmailTaken))

	got, err := st.UserByEmail(ctx, pro.Email)
	require.NoError(t, err)
	assert.Equal(t, []pricing.Trade{pricing.Plumbing}, got.Profile.Trades)
	assert.Equal(t, user.DefaultPrivacy, got.Profile.Privacy)

	_, err = st.UserByID(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	updated, err := st.UpdateUser(ctx, pro.ID, func(u *user.User) error {
		u.Active = false
		return nil
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	rep, err := st.LastReport(ctx, pro.ID)
	require.NoError(t, err)
	assert.Nil(t, rep)

	p := &location.Point{Latitude: 40.7, Longitude: -74}
	require.NoError(t, st.SaveLocation(ctx, pro.ID, location.Report{Point: p, ReportedAt: epoch}))
	require.NoError(t, st.SaveLocation(ctx, pro.ID, location.Report{Denied: true, ReportedAt: epoch.Add(time.Minute)}))
	rep, err = st.LastReport(ctx, pro.ID)
	require.NoError(t, err)
	assert.True(t, rep.Denied)
	assert.Nil(t, rep.Point)

	got, err = st.UserByID(ctx, pro.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLocation)
	assert.Equal(t, *p, *got.LastLocation)
}

func TestConcurrentClaim(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	cust := addUser(t, st, user.RoleCustomer)
	_, b := addBroadcastJob(t, st, cust.ID)

	const n = 8
	pros := make([]*user.User, n)
	for i := range pros {
		pros[i] = addUser(t, st, user.RolePro, pricing.Plumbing)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(proID string) {
			defer wg.Done()
			_, _, err := st.ClaimBroadcast(ctx, b.ID, proID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
		}(pros[i].ID)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	postings, err := st.ListOpenPostings(ctx)
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestSettleOnce(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	cust := addUser(t, st, user.RoleCustomer)
	pro := addUser(t, st, user.RolePro, pricing.Plumbing)
	j, b := addBroadcastJob(t, st, cust.ID)
	_, _, err := st.ClaimBroadcast(ctx, b.ID, pro.ID)
	require.NoError(t, err)

	settle := func(j *marketplace.Job) (*wallet.Txn, error) {
		j.Status = marketplace.StatusPaid
		j.LastPaymentTotal = 8500
		j.LastPlatformFee = 170
		j.LastProPayout = 8330
		return &wallet.Txn{
			ID:        uuid.NewString(),
			ProID:     pro.ID,
			JobID:     j.ID,
			Type:      wallet.TxnPayout,
			Amount:    8330,
			CreatedAt: epoch,
		}, nil
	}
	_, err = st.SettleJob(ctx, j.ID, settle)
	require.NoError(t, err)
	_, err = st.SettleJob(ctx, j.ID, settle)
	assert.True(t, apperr.HasReason(err, apperr.ReasonAlreadyPaid))

	balance, err := st.Balance(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, pricing.Cents(8330), balance)

	totals, err := st.SettlementTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, marketplace.SettlementTotals{Gross: 8500, Fees: 170, Payouts: 8330}, totals)

	txns, err := st.ListTxns(ctx, pro.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	rated, err := st.RateJob(ctx, j.ID, func(j *marketplace.Job) error {
		r := 0
		j.CustomerRating = &r
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, rated.CustomerRating)
	got, err := st.UserByID(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, 43, got.Profile.Score)
	assert.Equal(t, 2, got.Profile.RatingsCount)
}

func TestPriceJobAndConcurrentRatings(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	cust := addUser(t, st, user.RoleCustomer)
	pro := addUser(t, st, user.RolePro, pricing.Plumbing)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		j, b := addBroadcastJob(t, st, cust.ID)
		_, _, err := st.ClaimBroadcast(ctx, b.ID, pro.ID)
		require.NoError(t, err)
		ids[i] = j.ID
	}

	priced, err := st.PriceJob(ctx, ids[0], func(j *marketplace.Job, score int) error {
		assert.Equal(t, 85, score)
		j.Invoice.LaborRate = pricing.LaborRateCents(score)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.LaborRateCents(85), priced.Invoice.LaborRate)

	for _, id := range ids {
		_, err := st.UpdateJob(ctx, id, func(j *marketplace.Job) error {
			j.Status = marketplace.StatusCompleted
			return nil
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = st.RateJob(ctx, id, func(j *marketplace.Job) error {
				r := 100
				j.CustomerRating = &r
				return nil
			})
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	want, count := 85, 1
	for i := 0; i < n; i++ {
		want = user.RunningMean(want, count, 100)
		count++
	}
	got, err := st.UserByID(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+n, got.Profile.RatingsCount)
	assert.Equal(t, want, got.Profile.Score)

	_, err = st.PriceJob(ctx, ids[1], func(j *marketplace.Job, score int) error {
		assert.Equal(t, want, score)
		return nil
	})
	require.NoError(t, err)
}

func TestPins(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	cust := addUser(t, st, user.RoleCustomer)

	pin := &vault.Pin{CustomerID: cust.ID, Hash: "hash", UpdatedAt: epoch}
	require.NoError(t, st.CreatePin(ctx, pin))
	err := st.CreatePin(ctx, pin)
	assert.True(t, apperr.HasReason(err, apperr.ReasonPinAlreadySet))

	p, err := st.UpdatePin(ctx, cust.ID, func(p *vault.Pin) error {
		p.FailedAttempts = 5
		until := epoch.Add(15 * time.Minute)
		p.LockedUntil = &until
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, p.FailedAttempts)

	err = st.DeleteMethod(ctx, cust.ID, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestNotificationsDedup(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	u := addUser(t, st, user.RoleCustomer)

	n := &notifications.Notification{ID: uuid.NewString(), UserID: u.ID, Kind: "job_posted", Title: "Posted", CreatedAt: epoch}
	require.NoError(t, st.AddNotification(ctx, n))
	require.NoError(t, st.AddNotification(ctx, n))

	list, err := st.ListNotifications(ctx, u.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, st.MarkRead(ctx, u.ID, n.ID, epoch))
	list, err = st.ListNotifications(ctx, u.ID, true, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = st.MarkRead(ctx, "someone-else", n.ID, epoch)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
