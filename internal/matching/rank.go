package matching

import (
	"sort"

	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/pricing"
)

// Listing is an open posting as seen by one pro.
type Listing struct {
	marketplace.Posting
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

func tradeAllowed(trades []pricing.Trade, t pricing.Trade) bool {
	if len(trades) == 0 {
		return true
	}
	for _, x := range trades {
		if x == t {
			return true
		}
	}
	return false
}

// Rank filters postings to the pro's trades and orders them nearest first.
// Postings with unknown distance go last, newest first among themselves.
// A nil origin makes every distance unknown.
func Rank(postings []marketplace.Posting, trades []pricing.Trade, origin *location.Point) []Listing {
	out := make([]Listing, 0, len(postings))
	for _, p := range postings {
		if p.Broadcast.Status != marketplace.BroadcastOpen {
			continue
		}
		if !tradeAllowed(trades, p.Job.Trade) {
			continue
		}
		l := Listing{Posting: p}
		house := p.Job.Location
		if d, ok := location.Distance(origin, &house); ok {
			l.DistanceMeters = &d
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DistanceMeters, out[j].DistanceMeters
		switch {
		case di != nil && dj != nil:
			return *di < *dj
		case di != nil:
			return true
		case dj != nil:
			return false
		}
		return out[i].Broadcast.CreatedAt.After(out[j].Broadcast.CreatedAt)
	})
	return out
}
