package panel

import (
	"io"
	"testing"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/internal/selection"
	"github.com/grovetools/areatrip/internal/session"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFromInitialState(t *testing.T) {
	c := New(store.New())

	c.Toggle()
	assert.Equal(t, store.NavigationState{PanelOpened: true, PanelContext: store.PanelMenu}, c.State())

	c.Toggle()
	assert.Equal(t, store.NavigationState{PanelOpened: false, PanelContext: store.PanelMenu}, c.State())
}

func TestContextSurvivesCloseAndReopen(t *testing.T) {
	for _, ctx := range []store.PanelContext{store.PanelMenu, store.PanelWeather} {
		t.Run(string(ctx), func(t *testing.T) {
			c := New(store.New())

			c.SetContext(ctx, true)
			c.Toggle()
			assert.False(t, c.State().PanelOpened)
			assert.Equal(t, ctx, c.State().PanelContext)

			c.Toggle()
			assert.True(t, c.State().PanelOpened)
			assert.Equal(t, ctx, c.State().PanelContext)
		})
	}
}

func TestSetContextForcesOpenInOneDispatch(t *testing.T) {
	st := store.New()
	c := New(st)

	var seen []store.NavigationState
	st.Subscribe(func(prev, next store.State) {
		seen = append(seen, *next.Navigation)
	})

	c.SetContext(store.PanelWeather, true)

	require.Len(t, seen, 1, "no intermediate state with the wrong content")
	assert.Equal(t, store.NavigationState{PanelOpened: true, PanelContext: store.PanelWeather}, seen[0])

	// Forcing the same state again is a no-op.
	c.SetContext(store.PanelWeather, true)
	assert.Len(t, seen, 1)
}

func TestOpenClose(t *testing.T) {
	c := New(store.New())
	c.SetContext(store.PanelWeather, false)

	c.Open()
	assert.Equal(t, store.NavigationState{PanelOpened: true, PanelContext: store.PanelWeather}, c.State())
	c.Close()
	assert.Equal(t, store.NavigationState{PanelOpened: false, PanelContext: store.PanelWeather}, c.State())
}

func TestMenuItems(t *testing.T) {
	anonymous := MenuItems(store.AuthState{Loaded: true})
	require.Len(t, anonymous, 7)
	assert.Equal(t, MenuItem{Label: "Home", Path: "/"}, anonymous[0])
	assert.Equal(t, MenuItem{Label: "Bird Areas", Path: "/map/birdAreas"}, anonymous[1])

	signedIn := MenuItems(store.AuthState{Loaded: true, UID: "u1"})
	require.Len(t, signedIn, 8)
	assert.Equal(t, MenuItem{Label: "My trips", Path: "/trips"}, signedIn[1])
	assert.Equal(t, MenuItem{Label: "Bio Areas", Path: "/map/bioAreas"}, signedIn[7])
}

func TestLoginLabel(t *testing.T) {
	assert.Equal(t, "Login", LoginLabel(store.AuthState{}))
	assert.Equal(t, "Login", LoginLabel(store.AuthState{Loaded: true}))
	assert.Equal(t, "Ada", LoginLabel(store.AuthState{Loaded: true, UID: "u1", DisplayName: "Ada", Email: "a@x"}))
	assert.Equal(t, "a@x", LoginLabel(store.AuthState{Loaded: true, UID: "u1", Email: "a@x"}))
	assert.Equal(t, "u1", LoginLabel(store.AuthState{Loaded: true, UID: "u1"}))
}

type fixedSession struct{ s session.Session }

func (f fixedSession) Current() session.Session { return f.s }

func TestFollowClosesPanelAndNavigates(t *testing.T) {
	st := store.New()
	c := New(st)
	sel := selection.New(st)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	nav := routes.NewNavigator(fixedSession{s: session.Session{Status: store.AuthAnonymous}}, sel, logrus.NewEntry(logger))

	_, err := nav.Navigate(routes.PathPlanTrip)
	require.NoError(t, err)
	sel.Select(models.ClickedArea{ID: "a7", Name: "Lakeview"})
	c.Toggle()

	items := MenuItems(*st.GetState().Auth)
	match, err := c.Follow(items[0], nav)
	require.NoError(t, err)

	assert.Equal(t, routes.Home, match.Name)
	assert.Equal(t, routes.Home, nav.Current().Name)
	assert.False(t, c.State().PanelOpened)
	assert.Equal(t, store.PanelMenu, c.State().PanelContext)
	_, ok := sel.Selected()
	assert.False(t, ok, "leaving plan-trip clears the selection")
}

func TestFollowRefusedStillClosesPanel(t *testing.T) {
	st := store.New()
	c := New(st)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	nav := routes.NewNavigator(fixedSession{}, selection.New(st), logrus.NewEntry(logger))

	c.Open()
	_, err := c.Follow(MenuItem{Label: "Home", Path: routes.PathHome}, nav)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotLoaded))
	assert.False(t, c.State().PanelOpened)
}
