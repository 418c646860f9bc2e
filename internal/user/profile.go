package user

import (
	"context"
	"sort"
	"strings"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/pricing"
)

// ProfileUpdate carries the editable profile fields; nil fields are left
// alone.
type ProfileUpdate struct {
	Name     *string          `json:"name"`
	Phone    *string          `json:"phone"`
	PhotoURL *string          `json:"photo_url"`
	Privacy  *Privacy         `json:"privacy"`
	Trades   *[]pricing.Trade `json:"trades"`
}

func sameTrades(a, b []pricing.Trade) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UpdateProfile edits the caller's own profile. A locked trade set cannot
// change.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	return s.store.UpdateUser(ctx, userID, func(u *User) error {
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return apperr.Validation("name must not be empty")
			}
			u.Name = name
		}
		if upd.Phone != nil {
			if digitCount(*upd.Phone) < 8 {
				return apperr.Validation("enter a valid phone number")
			}
			u.Phone = strings.TrimSpace(*upd.Phone)
		}
		if upd.PhotoURL != nil {
			if u.Role == RolePro && strings.TrimSpace(*upd.PhotoURL) == "" {
				return apperr.Validation("pros must keep a profile photo")
			}
			u.Profile.PhotoURL = strings.TrimSpace(*upd.PhotoURL)
		}
		if upd.Privacy != nil {
			u.Profile.Privacy = *upd.Privacy
		}
		if upd.Trades != nil {
			if u.Role != RolePro {
				return apperr.Permission(apperr.ReasonWrongRole, "only pros have trades")
			}
			if u.Profile.TradesLocked {
				if sameTrades(u.Profile.Trades, *upd.Trades) {
					return nil
				}
				return apperr.Conflict(apperr.ReasonTradesLocked, "trades are locked after signup")
			}
			trades, err := normalizeTrades(*upd.Trades)
			if err != nil {
				return err
			}
			u.Profile.Trades = trades
			u.Profile.TradesLocked = true
		}
		return nil
	})
}

// ReportLocation records a device's location report. denied records that
// the device refused location access.
func (s *Service) ReportLocation(ctx context.Context, userID string, p *location.Point, denied bool) error {
	if !denied {
		if p == nil || !p.Valid() {
			return apperr.Validation("latitude/longitude out of range")
		}
	} else {
		p = nil
	}
	return s.store.SaveLocation(ctx, userID, location.Report{
		Point:      p,
		Denied:     denied,
		ReportedAt: s.now().UTC(),
	})
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID           string          `json:"id"`
	Role         Role            `json:"role"`
	Name         string          `json:"name"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	Trades       []pricing.Trade `json:"trades,omitempty"`
	Score        int             `json:"score"`
	RatingsCount int             `json:"ratings_count"`
	JobsDone     int             `json:"jobs_done"`
	HourlyRate   pricing.Cents   `json:"hourly_rate,omitempty"`
	Location     *location.Point `json:"location,omitempty"`
}

// Public strips fields hidden by the user's privacy flags.
func (u *User) Public() PublicProfile {
	p := PublicProfile{
		ID:           u.ID,
		Role:         u.Role,
		Name:         u.Name,
		PhotoURL:     u.Profile.PhotoURL,
		Trades:       u.Profile.Trades,
		Score:        u.Profile.Score,
		RatingsCount: u.Profile.RatingsCount,
		JobsDone:     u.Profile.JobsDone,
	}
	if u.Role == RolePro {
		p.HourlyRate = pricing.LaborRateCents(u.Profile.Score)
	}
	if !u.Profile.Privacy.HideEmail {
		p.Email = u.Email
	}
	if !u.Profile.Privacy.HidePhone {
		p.Phone = u.Phone
	}
	if !u.Profile.Privacy.HideLocation {
		p.Location = u.LastLocation
	}
	return p
}

func (s *Service) PublicProfile(ctx context.Context, id string) (PublicProfile, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return PublicProfile{}, err
	}
	return u.Public(), nil
}

type FeaturedPro struct {
	PublicProfile
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// FeaturedPros lists pros by score, highest first, with their distance
// from the viewer when both locations are known.
func (s *Service) FeaturedPros(ctx context.Context, viewerID string) ([]FeaturedPro, error) {
	viewer, err := s.store.UserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	pros, err := s.store.ListUsers(ctx, RolePro)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pros, func(i, j int) bool {
		return pros[i].Profile.Score > pros[j].Profile.Score
	})
	out := make([]FeaturedPro, 0, len(pros))
	for i := range pros {
		fp := FeaturedPro{PublicProfile: pros[i].Public()}
		if d, ok := location.Distance(viewer.LastLocation, pros[i].LastLocation); ok {
			fp.DistanceMeters = &d
		}
		out = append(out, fp)
	}
	return out, nil
}
