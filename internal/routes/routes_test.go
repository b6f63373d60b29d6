package routes

import (
	"io"
	"testing"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/selection"
	"github.com/grovetools/areatrip/internal/session"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		path     string
		want     Name
		areaType models.AreaType
		tripID   string
		wantErr  bool
	}{
		{"/", Home, "", "", false},
		{"", Home, "", "", false},
		{"/trips/", Trips, "", "", false},
		{"/plan-trip?from=map", PlanTrip, "", "", false},
		{"/map/geoparks", Map, models.AreaTypeGeopark, "", false},
		{"/map/volcanoes", NotFound, "", "", true},
		{"/map/", NotFound, "", "", true},
		{"/trip-detail/X1", TripDetail, "", "X1", false},
		{"/trip-detail/", NotFound, "", "", true},
		{"/trip-detail/X1/edit", NotFound, "", "", true},
		{"/settings", NotFound, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Resolve(tt.path)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnknownRoute))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got.Name)
			assert.Equal(t, tt.areaType, got.AreaType)
			assert.Equal(t, tt.tripID, got.TripID)
		})
	}
}

type fixedSession struct {
	s session.Session
}

func (f *fixedSession) Current() session.Session { return f.s }

func newNavigator(t *testing.T, s session.Session) (*Navigator, *store.Store, *fixedSession) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	st := store.New()
	src := &fixedSession{s: s}
	return NewNavigator(src, selection.New(st), logrus.NewEntry(logger)), st, src
}

var (
	anonymous = session.Session{Status: store.AuthAnonymous}
	signedIn  = session.Session{Status: store.AuthAuthenticated, User: models.Identity{UID: "u1"}}
)

func TestNavigateWaitsForSession(t *testing.T) {
	nav, _, src := newNavigator(t, session.Session{})

	got, err := nav.Navigate("/plan-trip")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotLoaded))
	assert.Equal(t, Home, got.Name)

	src.s = anonymous
	got, err = nav.Navigate("/plan-trip")
	require.NoError(t, err)
	assert.Equal(t, PlanTrip, got.Name)
}

func TestNavigateAuthenticatedRoutes(t *testing.T) {
	nav, _, src := newNavigator(t, anonymous)

	_, err := nav.Navigate("/trips")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotAuthenticated))
	assert.Equal(t, Home, nav.Current().Name)

	src.s = signedIn
	got, err := nav.Navigate("/trip-detail/X1")
	require.NoError(t, err)
	assert.Equal(t, "X1", got.TripID)
}

func TestLeavingPlanningClearsSelection(t *testing.T) {
	nav, st, _ := newNavigator(t, signedIn)
	sel := selection.New(st)

	_, err := nav.Navigate("/map/birdAreas")
	require.NoError(t, err)
	sel.Select(models.ClickedArea{ID: "a7"})

	_, err = nav.Navigate("/plan-trip")
	require.NoError(t, err)
	_, ok := sel.Selected()
	assert.True(t, ok, "map to plan-trip keeps the selection")

	_, err = nav.Navigate("/trips")
	require.NoError(t, err)
	_, ok = sel.Selected()
	assert.False(t, ok, "leaving the workflow clears it")
}

func TestNavigateUnknownPath(t *testing.T) {
	nav, _, _ := newNavigator(t, anonymous)

	got, err := nav.Navigate("/nowhere")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnknownRoute))
	assert.Equal(t, NotFound, got.Name)
	assert.Equal(t, NotFound, nav.Current().Name)
}
