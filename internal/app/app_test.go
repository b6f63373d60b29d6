package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/areatrip/config"
	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("AREATRIP_LOG_LEVEL", "panic")

	areasFile := filepath.Join(dir, "areas.json")
	require.NoError(t, os.WriteFile(areasFile, []byte(`[{"id":"a7","name":"Lakeview","position":{"lat":49.2,"lng":16.6}}]`), 0644))

	cfg, err := config.LoadFromBytes([]byte(`
store:
  backend: memory
session:
  file: `+filepath.Join(dir, "session.yml")+`
areas:
  file: `+areasFile+`
logging:
  format:
    structured_to_stderr: never
`+extra), config.FormatYAML)
	require.NoError(t, err)
	return cfg
}

func start(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	require.NoError(t, a.Start(ctx))
	return a
}

func TestPlanTripEndToEnd(t *testing.T) {
	a := start(t, testConfig(t, ""))

	require.Eventually(t, func() bool { return a.Session.Current().Loaded() }, 2*time.Second, 10*time.Millisecond)
	require.NotNil(t, a.Store.GetState().Areas.BirdAreas)

	_, err := a.Navigator.Navigate(routes.PathPlanTrip)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotAuthenticated), "anonymous users stay put")

	require.NoError(t, a.Provider.SignIn(context.Background(), models.Identity{UID: "u1", DisplayName: "Ada"}))
	require.Eventually(t, func() bool { return a.Store.GetState().Auth.IsAuthenticated() }, 2*time.Second, 10*time.Millisecond)

	_, err = a.Navigator.Navigate(routes.PathPlanTrip)
	require.NoError(t, err)

	area := a.Store.GetState().Areas.BirdAreas.Areas[0]
	a.Selection.Select(models.ClickedArea{ID: area.ID, Name: area.Name, Position: area.Position})

	id, err := a.Planner.Submit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, routes.Home, a.Navigator.Current().Name)

	trips, err := a.Trips.ListTrips(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, id, trips[0].ID)
	assert.Equal(t, "a7", trips[0].AreaID)
	assert.Equal(t, []string{models.DefaultTripNote}, trips[0].Notes)

	_, selected := a.Selection.Selected()
	assert.False(t, selected, "leaving the plan screen clears the selection")
}

func TestConfiguredDefaultsReachTheDraft(t *testing.T) {
	a := start(t, testConfig(t, "trips:\n  default_name: Weekend\n  write_mode: atomic\n"))

	assert.Equal(t, "atomic", string(a.Trips.Mode()))
	assert.Equal(t, "Weekend", a.Planner.Form().Name)
	assert.Equal(t, models.DefaultTripNote, a.Planner.Form().Note)
}

func TestStartFailsOnMissingAreaFile(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Areas.File = filepath.Join(t.TempDir(), "missing.json")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Error(t, a.Start(context.Background()))
	assert.False(t, a.Store.GetState().Areas.IsDownloading)
}

func TestSessionStartsNotLoaded(t *testing.T) {
	cfg := testConfig(t, "")
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, store.AuthNotLoaded, a.Store.GetState().Auth.Status())
	_, err = a.Navigator.Navigate(routes.PathTrips)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotLoaded))
}
