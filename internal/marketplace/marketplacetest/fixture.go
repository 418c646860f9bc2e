// Package marketplacetest builds in-memory marketplaces for tests.
package marketplacetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/pricing"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Now is the fixed clock every fixture runs on.
var Now = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

// House is where fixture customers are.
var House = location.Point{Latitude: 37.7749, Longitude: -122.4194}

// Recorder collects notified events.
type Recorder struct {
	mu     sync.Mutex
	events []marketplace.Event
}

func (r *Recorder) Notify(_ context.Context, evt marketplace.Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []marketplace.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]marketplace.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *Recorder) Events() []marketplace.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]marketplace.Event{}, r.events...)
}

type Fixture struct {
	T        *testing.T
	Store    *memory.Store
	Locator  *location.LastKnown
	Events   *Recorder
	Svc      *marketplace.Service
	Customer user.Caller
}

func New(t *testing.T) *Fixture {
	t.Helper()
	st := memory.New()
	f := &Fixture{
		T:     t,
		Store: st,
		Locator: &location.LastKnown{
			Source: st,
			MaxAge: 30 * time.Minute,
			Now:    func() time.Time { return Now },
		},
		Events: &Recorder{},
	}
	f.Svc = marketplace.NewService(st, st, f.Locator, f.Events, marketplace.WithClock(func() time.Time { return Now }))
	f.Customer = f.AddCustomer("Casey Customer", &House)
	return f
}

func (f *Fixture) add(u *user.User, at *location.Point) user.Caller {
	f.T.Helper()
	ctx := context.Background()
	require.NoError(f.T, f.Store.CreateUser(ctx, u))
	if at != nil {
		require.NoError(f.T, f.Store.SaveLocation(ctx, u.ID, location.Report{Point: at, ReportedAt: Now.Add(-time.Minute)}))
	}
	return user.Caller{ID: u.ID, Role: u.Role}
}

// AddCustomer creates an active customer, optionally with a fresh location.
func (f *Fixture) AddCustomer(name string, at *location.Point) user.Caller {
	return f.add(&user.User{
		ID:        uuid.New().String(),
		Role:      user.RoleCustomer,
		Name:      name,
		Email:     uuid.New().String() + "@example.com",
		Active:    true,
		Profile:   user.Profile{Privacy: user.DefaultPrivacy},
		CreatedAt: Now,
	}, at)
}

// AddPro creates an active pro with the given score and a single rating.
func (f *Fixture) AddPro(name string, score int, at *location.Point, trades ...pricing.Trade) user.Caller {
	return f.add(&user.User{
		ID:     uuid.New().String(),
		Role:   user.RolePro,
		Name:   name,
		Email:  uuid.New().String() + "@example.com",
		Active: true,
		Profile: user.Profile{
			PhotoURL:     "memory://photos/" + name + ".png",
			Trades:       trades,
			TradesLocked: true,
			Score:        score,
			RatingsCount: 1,
			Privacy:      user.DefaultPrivacy,
		},
		CreatedAt: Now,
	}, at)
}

// DirectJob creates an ASAP leak repair assigned straight to pro.
func (f *Fixture) DirectJob(pro user.Caller) *marketplace.Job {
	f.T.Helper()
	j, err := f.Svc.CreateJob(context.Background(), f.Customer, marketplace.CreateJobInput{
		ServiceID: "svc_pl_leak",
		MatchMode: marketplace.MatchDirect,
		ProID:     pro.ID,
		WantAsap:  true,
	})
	require.NoError(f.T, err)
	return j
}

// BroadcastJob posts an ASAP job for serviceID to the open market.
func (f *Fixture) BroadcastJob(serviceID string) *marketplace.Job {
	f.T.Helper()
	j, err := f.Svc.CreateJob(context.Background(), f.Customer, marketplace.CreateJobInput{
		ServiceID: serviceID,
		MatchMode: marketplace.MatchBroadcast,
		WantAsap:  true,
	})
	require.NoError(f.T, err)
	return j
}

// ScenarioInvoice is two parts, $10x1 and $5x2, plus one labor hour.
func ScenarioInvoice() marketplace.InvoiceInput {
	return marketplace.InvoiceInput{
		LaborHours: decimal.NewFromInt(1),
		InvoiceParts: []pricing.LineItem{
			{Name: "Part A", Qty: 1, Unit: pricing.Dollars(10)},
			{Name: "Part B", Qty: 2, Unit: pricing.Dollars(5)},
		},
	}
}

// ReadyForPayment walks a direct job to payment_requested with the
// scenario invoice.
func (f *Fixture) ReadyForPayment(pro user.Caller) *marketplace.Job {
	f.T.Helper()
	ctx := context.Background()
	j := f.DirectJob(pro)
	_, err := f.Svc.MarkArrived(ctx, pro, j.ID)
	require.NoError(f.T, err)
	_, err = f.Svc.SaveInvoice(ctx, pro, j.ID, ScenarioInvoice())
	require.NoError(f.T, err)
	j, err = f.Svc.RequestPayment(ctx, pro, j.ID)
	require.NoError(f.T, err)
	return j
}
