package session

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	updates    chan models.Identity
	signOutErr error
	signOuts   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{updates: make(chan models.Identity, 4)}
}

func (f *fakeProvider) Watch(ctx context.Context) (<-chan models.Identity, error) {
	return f.updates, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.signOuts++
	return f.signOutErr
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestBridgeTriState(t *testing.T) {
	st := store.New()
	provider := newFakeProvider()
	bridge := NewBridge(provider, st, testLogger())
	require.NoError(t, bridge.Start(context.Background()))

	// Boot: not loaded, and distinguishable from anonymous.
	assert.False(t, bridge.Current().Loaded())
	assert.Equal(t, store.AuthNotLoaded, st.GetState().Auth.Status())
	_, err := bridge.RequireUser("submit trip")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotLoaded))

	provider.updates <- models.Identity{}
	require.Eventually(t, func() bool { return st.GetState().Auth.Loaded }, time.Second, 5*time.Millisecond)
	assert.Equal(t, store.AuthAnonymous, bridge.Current().Status)
	assert.Equal(t, store.AuthAnonymous, st.GetState().Auth.Status())
	_, err = bridge.RequireUser("submit trip")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotAuthenticated))

	provider.updates <- models.Identity{UID: "u1", DisplayName: "Ada", Email: "ada@example.com"}
	require.Eventually(t, func() bool { return st.GetState().Auth.IsAuthenticated() }, time.Second, 5*time.Millisecond)
	user, err := bridge.RequireUser("submit trip")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UID)
	assert.Equal(t, store.AuthState{Loaded: true, UID: "u1", DisplayName: "Ada", Email: "ada@example.com"}, *st.GetState().Auth)
}

func TestBridgeSignOut(t *testing.T) {
	st := store.New()
	provider := newFakeProvider()
	bridge := NewBridge(provider, st, testLogger())
	require.NoError(t, bridge.Start(context.Background()))

	provider.updates <- models.Identity{UID: "u1"}
	_, err := bridge.WaitLoaded(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return bridge.Current().Status == store.AuthAuthenticated }, time.Second, 5*time.Millisecond)

	provider.signOutErr = errors.New("network down")
	assert.Error(t, bridge.SignOut(context.Background()))
	assert.Equal(t, store.AuthAuthenticated, bridge.Current().Status, "failed sign-out keeps the session")

	provider.signOutErr = nil
	require.NoError(t, bridge.SignOut(context.Background()))
	assert.Equal(t, store.AuthAnonymous, bridge.Current().Status)
	assert.Equal(t, store.AuthAnonymous, st.GetState().Auth.Status())
	assert.Equal(t, 2, provider.signOuts)
}

func TestWaitLoadedTimesOut(t *testing.T) {
	bridge := NewBridge(newFakeProvider(), store.New(), testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := bridge.WaitLoaded(ctx)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotLoaded))
}

func TestFileProviderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "session.yml")
	provider := NewFileProvider(path, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := provider.Watch(ctx)
	require.NoError(t, err)

	select {
	case identity := <-updates:
		assert.True(t, identity.Anonymous(), "missing file is anonymous")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial identity")
	}

	require.NoError(t, provider.SignIn(ctx, models.Identity{UID: "u1", Email: "u1@example.com"}))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case identity := <-updates:
			if identity.UID == "u1" {
				assert.Equal(t, "u1@example.com", identity.Email)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for sign-in")
		}
	}
}

func TestFileProviderSignInSignOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	provider := NewFileProvider(path, testLogger())
	ctx := context.Background()

	assert.Error(t, provider.SignIn(ctx, models.Identity{}))

	require.NoError(t, provider.SignIn(ctx, models.Identity{UID: "u1", DisplayName: "Ada"}))
	identity, err := provider.Read()
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UID: "u1", DisplayName: "Ada"}, identity)

	require.NoError(t, provider.SignOut(ctx))
	require.NoError(t, provider.SignOut(ctx), "signing out twice is fine")
	identity, err = provider.Read()
	require.NoError(t, err)
	assert.True(t, identity.Anonymous())
}
