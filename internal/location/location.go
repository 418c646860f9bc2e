package location

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

const earthRadiusMeters = 6371000.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within coordinate bounds.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance is Haversine over optional points; ok is false when either side
// is unknown.
func Distance(a, b *Point) (meters float64, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return Haversine(*a, *b), true
}

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// Resolver yields a user's current location.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (Point, error)
}

// Report is the last location a device sent for a user.
type Report struct {
	Point      *Point
	Denied     bool
	ReportedAt time.Time
}

// ReportSource reads last reported locations.
type ReportSource interface {
	LastReport(ctx context.Context, userID string) (*Report, error)
}

// LastKnown resolves locations from device reports, treating reports older
// than MaxAge as unavailable.
type LastKnown struct {
	Source ReportSource
	MaxAge time.Duration
	Now    func() time.Time
}

func (r *LastKnown) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *LastKnown) Resolve(ctx context.Context, userID string) (Point, error) {
	rep, err := r.Source.LastReport(ctx, userID)
	if err != nil {
		return Point{}, err
	}
	if rep == nil {
		return Point{}, ErrUnavailable
	}
	if rep.Denied {
		return Point{}, ErrPermissionDenied
	}
	if rep.Point == nil {
		return Point{}, ErrUnavailable
	}
	if r.MaxAge > 0 && r.now().Sub(rep.ReportedAt) > r.MaxAge {
		return Point{}, ErrUnavailable
	}
	return *rep.Point, nil
}

// AsCollaboratorError converts a resolver failure into an apperr error that
// names the location collaborator.
func AsCollaboratorError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		return apperr.Collaborator(apperr.Location, apperr.ReasonPermissionDenied, err)
	}
	return apperr.Collaborator(apperr.Location, apperr.ReasonUnavailable, err)
}
