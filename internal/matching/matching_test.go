package matching_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/marketplace/marketplacetest"
	"github.com/sudo-init-do/fixhub/internal/matching"
	"github.com/sudo-init-do/fixhub/internal/pricing"
)

func posting(id string, trade pricing.Trade, at location.Point, created time.Time) marketplace.Posting {
	return marketplace.Posting{
		Broadcast: marketplace.Broadcast{ID: id, JobID: "job-" + id, Trade: trade, Status: marketplace.BroadcastOpen, CreatedAt: created},
		Job:       marketplace.Job{ID: "job-" + id, Trade: trade, Location: at, CreatedAt: created},
	}
}

func ids(ls []matching.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Broadcast.ID
	}
	return out
}

func TestRankByDistance(t *testing.T) {
	t0 := marketplacetest.Now
	sf := location.Point{Latitude: 37.7749, Longitude: -122.4194}
	oakland := location.Point{Latitude: 37.8044, Longitude: -122.2712}
	la := location.Point{Latitude: 34.0522, Longitude: -118.2437}

	postings := []marketplace.Posting{
		posting("far", pricing.Plumbing, la, t0),
		posting("near", pricing.Plumbing, oakland, t0),
		posting("electric", pricing.Electrical, sf, t0),
	}

	got := matching.Rank(postings, []pricing.Trade{pricing.Plumbing}, &sf)
	assert.Equal(t, []string{"near", "far"}, ids(got))
	require.NotNil(t, got[0].DistanceMeters)
	assert.Less(t, *got[0].DistanceMeters, 20000.0)

	all := matching.Rank(postings, nil, &sf)
	assert.Equal(t, []string{"electric", "near", "far"}, ids(all))
}

func TestRankWithoutOrigin(t *testing.T) {
	t0 := marketplacetest.Now
	sf := location.Point{Latitude: 37.7749, Longitude: -122.4194}

	postings := []marketplace.Posting{
		posting("old", pricing.HVAC, sf, t0),
		posting("newest", pricing.HVAC, sf, t0.Add(2*time.Hour)),
		posting("newer", pricing.HVAC, sf, t0.Add(time.Hour)),
	}
	got := matching.Rank(postings, nil, nil)
	assert.Equal(t, []string{"newest", "newer", "old"}, ids(got))
	for _, l := range got {
		assert.Nil(t, l.DistanceMeters)
	}
}

func TestRankSkipsClaimed(t *testing.T) {
	p := posting("gone", pricing.Handyman, marketplacetest.House, marketplacetest.Now)
	p.Broadcast.Status = marketplace.BroadcastClaimed
	assert.Empty(t, matching.Rank([]marketplace.Posting{p}, nil, nil))
}

func newEngine(f *marketplacetest.Fixture) *matching.Engine {
	return matching.NewEngine(f.Store, f.Store, f.Locator, f.Events, time.Second)
}

func TestListOpenForPro(t *testing.T) {
	f := marketplacetest.New(t)
	ctx := context.Background()
	near := location.Point{Latitude: 37.78, Longitude: -122.41}
	plumber := f.AddPro("Pat", 85, &near, pricing.Plumbing)

	f.BroadcastJob("svc_pl_leak")
	f.BroadcastJob("svc_el_outlet")

	e := newEngine(f)
	got, err := e.ListOpen(ctx, plumber)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pricing.Plumbing, got[0].Job.Trade)
	require.NotNil(t, got[0].DistanceMeters)

	_, err = e.ListOpen(ctx, f.Customer)
	assert.True(t, apperr.HasReason(err, apperr.ReasonWrongRole))
}

func TestClaim(t *testing.T) {
	f := marketplacetest.New(t)
	ctx := context.Background()
	pat := f.AddPro("Pat", 85, nil, pricing.Plumbing)
	sam := f.AddPro("Sam", 85, nil, pricing.Plumbing)
	eli := f.AddPro("Eli", 85, nil, pricing.Electrical)

	j := f.BroadcastJob("svc_pl_leak")
	open, err := f.Store.ListOpenPostings(ctx)
	require.NoError(t, err)
	bID := open[0].Broadcast.ID

	e := newEngine(f)
	_, err = e.Claim(ctx, eli, bID)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
	assert.True(t, apperr.HasReason(err, apperr.ReasonWrongTrade))
	assert.False(t, apperr.HasReason(err, apperr.ReasonWrongRole))

	_, err = e.Claim(ctx, f.Customer, bID)
	assert.True(t, apperr.HasReason(err, apperr.ReasonWrongRole))

	claimed, err := e.Claim(ctx, pat, bID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, claimed.ID)
	assert.Equal(t, pat.ID, claimed.ProID)
	assert.Equal(t, marketplace.StatusAssigned, claimed.Status)

	_, err = e.Claim(ctx, sam, bID)
	assert.True(t, apperr.HasReason(err, apperr.ReasonAlreadyClaimed))

	b, err := f.Store.GetBroadcast(ctx, bID)
	require.NoError(t, err)
	assert.Equal(t, marketplace.BroadcastClaimed, b.Status)
	assert.Equal(t, pat.ID, b.ClaimedBy)

	left, err := e.ListOpen(ctx, sam)
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = e.Claim(ctx, sam, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestConcurrentClaimHasOneWinner(t *testing.T) {
	f := marketplacetest.New(t)
	ctx := context.Background()

	const n = 20
	pros := make([]string, n)
	for i := range pros {
		pros[i] = f.AddPro("Pro", 85, nil, pricing.HVAC).ID
	}
	f.BroadcastJob("svc_hv_nocool")
	open, err := f.Store.ListOpenPostings(ctx)
	require.NoError(t, err)
	bID := open[0].Broadcast.ID

	e := newEngine(f)
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = e.Claim(ctx, userCaller(pros[i]), bID)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	winner := ""
	for i, err := range errs {
		if err == nil {
			winners++
			winner = pros[i]
			continue
		}
		assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
	}
	assert.Equal(t, 1, winners)

	jobs, err := f.Store.ListJobs(ctx, marketplace.JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, winner, jobs[0].ProID)
}
