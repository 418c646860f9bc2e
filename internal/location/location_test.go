package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

func TestHaversine(t *testing.T) {
	sf := Point{Latitude: 37.7749, Longitude: -122.4194}
	la := Point{Latitude: 34.0522, Longitude: -118.2437}

	d := Haversine(sf, la)
	assert.InDelta(t, 559_000, d, 2_000)
	assert.InDelta(t, d, Haversine(la, sf), 1e-6)
	assert.Zero(t, Haversine(sf, sf))
}

func TestDistanceUnknown(t *testing.T) {
	p := &Point{Latitude: 1, Longitude: 1}
	_, ok := Distance(p, nil)
	assert.False(t, ok)
	_, ok = Distance(nil, p)
	assert.False(t, ok)
	d, ok := Distance(p, p)
	assert.True(t, ok)
	assert.Zero(t, d)
}

type reports map[string]*Report

func (r reports) LastReport(_ context.Context, userID string) (*Report, error) {
	return r[userID], nil
}

func TestLastKnownResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := reports{
		"fresh":  {Point: &Point{Latitude: 40, Longitude: -74}, ReportedAt: now.Add(-time.Minute)},
		"stale":  {Point: &Point{Latitude: 40, Longitude: -74}, ReportedAt: now.Add(-2 * time.Hour)},
		"denied": {Denied: true, ReportedAt: now},
	}
	r := &LastKnown{Source: src, MaxAge: 30 * time.Minute, Now: func() time.Time { return now }}

	p, err := r.Resolve(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, 40.0, p.Latitude)

	_, err = r.Resolve(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = r.Resolve(context.Background(), "denied")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = r.Resolve(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAsCollaboratorError(t *testing.T) {
	err := AsCollaboratorError(ErrPermissionDenied)
	assert.Equal(t, apperr.KindCollaborator, apperr.KindOf(err))
	assert.Equal(t, apperr.ReasonPermissionDenied, apperr.ReasonOf(err))
	assert.Equal(t, apperr.Location, apperr.As(err).Collaborator)

	err = AsCollaboratorError(errors.New("gps off"))
	assert.Equal(t, apperr.ReasonUnavailable, apperr.ReasonOf(err))

	assert.NoError(t, AsCollaboratorError(nil))
}
