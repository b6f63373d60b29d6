package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/docstore"
	"github.com/grovetools/areatrip/internal/panel"
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/internal/selection"
	"github.com/grovetools/areatrip/internal/session"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/internal/trips"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	session session.Session
}

func (f *fakeUsers) Current() session.Session { return f.session }

func (f *fakeUsers) RequireUser(action string) (models.Identity, error) {
	switch f.session.Status {
	case store.AuthNotLoaded:
		return models.Identity{}, apperrors.SessionNotLoaded(action)
	case store.AuthAnonymous:
		return models.Identity{}, apperrors.NotAuthenticated(action)
	}
	return f.session.User, nil
}

// blockingCreator holds every call until release is closed.
type blockingCreator struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (b *blockingCreator) CreateTrip(ctx context.Context, ownerID string, draft models.TripDraft) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.started)
	<-b.release
	return "T1", ctx.Err()
}

var mayFirst = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *store.Store
	users   *fakeUsers
	sel     *selection.Manager
	nav     *routes.Navigator
	docs    *docstore.MemoryStore
	planner *Planner
}

func newFixture(t *testing.T, creator TripCreator, opts ...Option) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	st := store.New()
	users := &fakeUsers{session: session.Session{Status: store.AuthAuthenticated, User: models.Identity{UID: "u1"}}}
	sel := selection.New(st)
	nav := routes.NewNavigator(users, sel, entry)
	docs := docstore.NewMemoryStore()
	if creator == nil {
		creator = trips.New(docs)
	}
	opts = append([]Option{WithClock(func() time.Time { return mayFirst })}, opts...)
	return &fixture{
		store:   st,
		users:   users,
		sel:     sel,
		nav:     nav,
		docs:    docs,
		planner: NewPlanner(st, panel.New(st), users, creator, nav, entry, opts...),
	}
}

func (f *fixture) selectLakeview(t *testing.T) {
	t.Helper()
	_, err := f.nav.Navigate("/plan-trip")
	require.NoError(t, err)
	f.sel.Select(models.ClickedArea{ID: "a7", Name: "Lakeview", Position: models.GeoPoint{Lat: 10, Lng: 20}})
}

func TestDraftDefaults(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.planner.Draft()
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNoAreaSelected))

	f.selectLakeview(t)
	draft, err := f.planner.Draft()
	require.NoError(t, err)
	assert.Equal(t, "My Trip", draft.Name)
	assert.Equal(t, []string{"I should take some beers..."}, draft.Notes)
	assert.Equal(t, mayFirst, draft.Date)
	assert.Equal(t, "a7", draft.AreaID)
}

func TestDraftEdits(t *testing.T) {
	f := newFixture(t, nil, WithDefaults(Defaults{Note: "Bring binoculars"}))
	f.selectLakeview(t)

	later := mayFirst.AddDate(0, 1, 0)
	f.planner.SetName("Dawn walk")
	f.planner.SetDate(&later)
	draft, err := f.planner.Draft()
	require.NoError(t, err)
	assert.Equal(t, "Dawn walk", draft.Name)
	assert.Equal(t, later, draft.Date)
	assert.Equal(t, []string{"Bring binoculars"}, draft.Notes)

	f.planner.SetDate(nil)
	f.planner.SetNote("")
	draft, err = f.planner.Draft()
	require.NoError(t, err)
	assert.Equal(t, mayFirst, draft.Date, "clearing the date picker falls back to now")
	assert.Equal(t, []string{""}, draft.Notes)
}

func TestCanSubmitGateOrder(t *testing.T) {
	f := newFixture(t, nil)

	f.users.session = session.Session{}
	assert.True(t, apperrors.Is(f.planner.CanSubmit(), apperrors.ErrCodeSessionNotLoaded))

	f.users.session = session.Session{Status: store.AuthAnonymous}
	assert.True(t, apperrors.Is(f.planner.CanSubmit(), apperrors.ErrCodeNotAuthenticated))

	f.users.session = session.Session{Status: store.AuthAuthenticated, User: models.Identity{UID: "u1"}}
	assert.True(t, apperrors.Is(f.planner.CanSubmit(), apperrors.ErrCodeNoAreaSelected))

	f.selectLakeview(t)
	assert.NoError(t, f.planner.CanSubmit())
}

func TestSubmitLakeview(t *testing.T) {
	f := newFixture(t, nil)
	f.selectLakeview(t)
	f.planner.SetName("Dawn walk")

	id, err := f.planner.Submit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	docs, err := f.docs.List(context.Background(), "users/u1/trips")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].Data["id"])
	assert.Equal(t, "a7", docs[0].Data["areaId"])
	assert.Equal(t, "Dawn walk", docs[0].Data["name"])

	assert.Equal(t, routes.Home, f.nav.Current().Name)
	_, ok := f.sel.Selected()
	assert.False(t, ok, "going home leaves the workflow")
	assert.Equal(t, "My Trip", f.planner.Form().Name, "draft is reset")
}

func TestSubmitFailureStays(t *testing.T) {
	f := newFixture(t, failingCreator{})
	f.selectLakeview(t)
	f.planner.SetName("Dawn walk")

	_, err := f.planner.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, routes.PlanTrip, f.nav.Current().Name)
	assert.Equal(t, "Dawn walk", f.planner.Form().Name, "draft survives a failed write")
	assert.False(t, f.planner.Form().Submitting)
}

type failingCreator struct{}

func (failingCreator) CreateTrip(context.Context, string, models.TripDraft) (string, error) {
	return "", apperrors.RemoteWriteFailed(1, "users/u1/trips", "", errors.New("offline"))
}

func TestSubmitInFlightGuard(t *testing.T) {
	creator := &blockingCreator{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, creator)
	f.selectLakeview(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.planner.Submit(ctx)
		done <- err
	}()
	<-creator.started

	assert.True(t, f.planner.Form().Submitting)
	assert.ErrorIs(t, f.planner.CanSubmit(), ErrSubmitInFlight)
	_, err := f.planner.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	// Cancelling the caller does not abort the write.
	cancel()
	close(creator.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, creator.calls)
}

func TestOpenWeather(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, apperrors.Is(f.planner.OpenWeather(), apperrors.ErrCodeNoAreaSelected))

	f.selectLakeview(t)
	require.NoError(t, f.planner.OpenWeather())

	state := f.store.GetState()
	assert.True(t, state.Weather.Reinitialize)
	require.NotNil(t, state.Weather.Location)
	assert.Equal(t, models.GeoPoint{Lat: 10, Lng: 20}, *state.Weather.Location)
	assert.True(t, state.Navigation.PanelOpened)
	assert.Equal(t, store.PanelWeather, state.Navigation.PanelContext)
}

func TestClose(t *testing.T) {
	f := newFixture(t, nil)
	f.selectLakeview(t)

	require.NoError(t, f.planner.Close())
	assert.Equal(t, routes.Home, f.nav.Current().Name)
	_, ok := f.sel.Selected()
	assert.False(t, ok)
}

func TestTogglePanelKeepsContext(t *testing.T) {
	f := newFixture(t, nil)
	f.selectLakeview(t)
	require.NoError(t, f.planner.OpenWeather())

	f.planner.TogglePanel()
	nav := f.store.GetState().Navigation
	assert.False(t, nav.PanelOpened)
	assert.Equal(t, store.PanelWeather, nav.PanelContext)

	f.planner.TogglePanel()
	assert.True(t, f.store.GetState().Navigation.PanelOpened)
}

func TestFollowMenuLeavesPlanning(t *testing.T) {
	f := newFixture(t, nil)
	f.selectLakeview(t)
	f.planner.TogglePanel()

	match, err := f.planner.FollowMenu(panel.MenuItem{Label: "Home", Path: routes.PathHome})
	require.NoError(t, err)
	assert.Equal(t, routes.Home, match.Name)
	assert.False(t, f.store.GetState().Navigation.PanelOpened)
	_, ok := f.sel.Selected()
	assert.False(t, ok)
}
