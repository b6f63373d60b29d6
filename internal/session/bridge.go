// Package session normalizes the identity provider into the tri-state session
// signal (not loaded, anonymous, authenticated) and mirrors it into the store.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
)

// Provider is the identity provider boundary.
type Provider interface {
	// Watch streams the current identity and every later change. An
	// identity without a uid is an anonymous session. The channel is closed
	// when ctx is done.
	Watch(ctx context.Context) (<-chan models.Identity, error)

	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}

// Session is the normalized signal.
type Session struct {
	Status store.AuthStatus
	User   models.Identity
}

// Loaded reports whether the provider has reported at least once.
func (s Session) Loaded() bool {
	return s.Status != store.AuthNotLoaded
}

// AuthState converts the session into the store's auth slice.
func (s Session) AuthState() store.AuthState {
	if !s.Loaded() {
		return store.AuthState{}
	}
	return store.AuthState{
		Loaded:      true,
		UID:         s.User.UID,
		DisplayName: s.User.DisplayName,
		Email:       s.User.Email,
	}
}

// Bridge owns the session state and mirrors it read-only into the store.
type Bridge struct {
	provider Provider
	store    *store.Store
	logger   *logrus.Entry

	mu       sync.RWMutex
	current  Session
	loaded   chan struct{}
	loadOnce sync.Once
}

// NewBridge creates a bridge in the not-loaded state.
func NewBridge(provider Provider, st *store.Store, logger *logrus.Entry) *Bridge {
	return &Bridge{
		provider: provider,
		store:    st,
		logger:   logger,
		loaded:   make(chan struct{}),
	}
}

// Start begins consuming the provider stream. It returns once the stream is
// open; the session stays not-loaded until the first identity arrives.
func (b *Bridge) Start(ctx context.Context) error {
	updates, err := b.provider.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch identity provider: %w", err)
	}
	go func() {
		for identity := range updates {
			b.apply(identity)
		}
		b.logger.Debug("Identity stream closed")
	}()
	return nil
}

func (b *Bridge) apply(identity models.Identity) {
	next := normalize(identity)

	b.mu.Lock()
	b.current = next
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"status": next.Status.String(),
		"uid":    next.User.UID,
	}).Debug("Session changed")

	b.store.Dispatch(store.AuthChanged(next.AuthState()))
	b.loadOnce.Do(func() { close(b.loaded) })
}

func normalize(identity models.Identity) Session {
	identity.UID = strings.TrimSpace(identity.UID)
	if identity.Anonymous() {
		return Session{Status: store.AuthAnonymous}
	}
	return Session{Status: store.AuthAuthenticated, User: identity}
}

// Current returns the latest session.
func (b *Bridge) Current() Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// WaitLoaded blocks until the provider has reported once or ctx is done.
func (b *Bridge) WaitLoaded(ctx context.Context) (Session, error) {
	select {
	case <-b.loaded:
		return b.Current(), nil
	case <-ctx.Done():
		return Session{}, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeSessionNotLoaded, "identity provider did not report in time")
	}
}

// RequireLoaded fails with SESSION_NOT_LOADED before the first report.
func (b *Bridge) RequireLoaded(action string) (Session, error) {
	s := b.Current()
	if !s.Loaded() {
		return s, apperrors.SessionNotLoaded(action)
	}
	return s, nil
}

// RequireUser returns the signed-in identity, distinguishing "wait" from
// "anonymous".
func (b *Bridge) RequireUser(action string) (models.Identity, error) {
	s, err := b.RequireLoaded(action)
	if err != nil {
		return models.Identity{}, err
	}
	if s.Status != store.AuthAuthenticated {
		return models.Identity{}, apperrors.NotAuthenticated(action)
	}
	return s.User, nil
}

// SignOut ends the session; on success the session becomes anonymous.
func (b *Bridge) SignOut(ctx context.Context) error {
	if err := b.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	b.apply(models.Identity{})
	b.logger.Info("Signed out")
	return nil
}
