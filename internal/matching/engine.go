package matching

import (
	"context"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Engine serves the open broadcast market to pros.
type Engine struct {
	store    marketplace.Store
	users    marketplace.UserReader
	locator  location.Resolver
	notifier marketplace.Notifier
	timeout  time.Duration
}

func NewEngine(store marketplace.Store, users marketplace.UserReader, locator location.Resolver, notifier marketplace.Notifier, timeout time.Duration) *Engine {
	if notifier == nil {
		notifier = marketplace.NopNotifier{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{
		store:    store,
		users:    users,
		locator:  locator,
		notifier: notifier,
		timeout:  timeout,
	}
}

func (e *Engine) activePro(ctx context.Context, c user.Caller) (*user.User, error) {
	if c.Role != user.RolePro {
		return nil, apperr.Permission(apperr.ReasonWrongRole, "only pros can use the market")
	}
	pro, err := e.users.UserByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !pro.Active {
		return nil, apperr.Permission(apperr.ReasonSuspended, "account suspended")
	}
	return pro, nil
}

// origin resolves where the pro is now. A failed lookup only means
// distances are unknown.
func (e *Engine) origin(ctx context.Context, proID string) *location.Point {
	if e.locator == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	p, err := e.locator.Resolve(ctx, proID)
	if err != nil {
		log.Debugf("No location for pro %s: %v", proID, err)
		return nil
	}
	return &p
}

// ListOpen returns the open postings the pro can claim, nearest first.
func (e *Engine) ListOpen(ctx context.Context, c user.Caller) ([]Listing, error) {
	pro, err := e.activePro(ctx, c)
	if err != nil {
		return nil, err
	}
	postings, err := e.store.ListOpenPostings(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(postings, pro.Profile.Trades, e.origin(ctx, pro.ID)), nil
}

// Claim makes the caller the pro on a broadcast job. Exactly one
// concurrent claimant wins; the rest get already_claimed or
// already_assigned.
func (e *Engine) Claim(ctx context.Context, c user.Caller, broadcastID string) (*marketplace.Job, error) {
	pro, err := e.activePro(ctx, c)
	if err != nil {
		return nil, err
	}
	b, err := e.store.GetBroadcast(ctx, broadcastID)
	if err != nil {
		return nil, err
	}
	if !pro.HasTrade(b.Trade) {
		return nil, apperr.Permission(apperr.ReasonWrongTrade, "this job is outside your trades")
	}

	job, b, err := e.store.ClaimBroadcast(ctx, broadcastID, pro.ID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindStateConflict {
			log.Debugf("Claim of %s by %s lost: %v", broadcastID, pro.ID, err)
		}
		return nil, err
	}
	log.Infof("Broadcast %s claimed by %s (job %s)", b.ID, pro.ID, job.ID)

	evt := marketplace.NewEvent(marketplace.EventClaimed, job)
	evt.BroadcastID = b.ID
	e.notifier.Notify(ctx, evt)
	return job, nil
}
