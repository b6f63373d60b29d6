package selection

import (
	"testing"
	"time"

	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectReplacesPriorSelection(t *testing.T) {
	m := New(store.New())

	a := models.ClickedArea{ID: "a1", Name: "Marsh"}
	b := models.ClickedArea{ID: "a2", Name: "Ridge", Position: models.GeoPoint{Lat: 1, Lng: 2}}

	m.Select(a)
	m.Select(b)

	got, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestClear(t *testing.T) {
	st := store.New()
	m := New(st)

	_, ok := m.Selected()
	assert.False(t, ok)

	notified := 0
	st.Subscribe(func(prev, next store.State) { notified++ })

	m.Clear()
	assert.Equal(t, 0, notified, "clearing an empty selection changes nothing")

	m.Select(models.ClickedArea{ID: "a1"})
	m.Clear()
	_, ok = m.Selected()
	assert.False(t, ok)
	assert.Equal(t, 2, notified)
}

func TestSelectAcceptsAreasOutsideLoadedCollection(t *testing.T) {
	st := store.New()
	st.Dispatch(store.BirdAreasDownloaded(&models.CompressedAreaCollection{
		Areas: []models.Area{{ID: "a1"}},
	}))
	m := New(st)

	m.Select(models.ClickedArea{ID: "elsewhere"})
	got, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "elsewhere", got.ID)
}

func TestSelectedVisibleWhileAnotherDispatchDelivers(t *testing.T) {
	st := store.New()
	m := New(st)

	entered := make(chan struct{})
	release := make(chan struct{})
	st.Subscribe(func(prev, next store.State) {
		if prev.Weather != next.Weather {
			close(entered)
			<-release
		}
	})
	go st.Dispatch(store.ReinitializeWeather(true))
	<-entered
	time.AfterFunc(20*time.Millisecond, func() { close(release) })

	m.Select(models.ClickedArea{ID: "a7"})
	got, ok := m.Selected()
	require.True(t, ok, "Select returns only after the selection is stored")
	assert.Equal(t, "a7", got.ID)
}
