package routes

import (
	"sync"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/session"
	"github.com/sirupsen/logrus"
)

// SessionSource exposes the current session.
type SessionSource interface {
	Current() session.Session
}

// SelectionClearer drops the selected area.
type SelectionClearer interface {
	Clear()
}

// Navigator holds the current screen.
type Navigator struct {
	session   SessionSource
	selection SelectionClearer
	logger    *logrus.Entry

	mu      sync.Mutex
	current Match
}

// NewNavigator starts on the home screen.
func NewNavigator(src SessionSource, sel SelectionClearer, logger *logrus.Entry) *Navigator {
	return &Navigator{
		session:   src,
		selection: sel,
		logger:    logger,
		current:   Match{Name: Home, Path: PathHome},
	}
}

// Current returns the screen being shown.
func (n *Navigator) Current() Match {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate moves to path.
//
// Nothing is routed until the session has loaded. Trips and trip details
// need a signed-in user; the current screen is kept when either gate fails.
// Unknown paths move to NotFound and report UNKNOWN_ROUTE. Leaving the map or
// plan-trip screens for any other screen clears the selected area.
func (n *Navigator) Navigate(path string) (Match, error) {
	s := n.session.Current()
	if !s.Loaded() {
		return n.Current(), apperrors.SessionNotLoaded("navigate to " + path)
	}

	match, resolveErr := Resolve(path)
	if match.RequiresAuth() && s.User.Anonymous() {
		return n.Current(), apperrors.NotAuthenticated("open " + match.Path)
	}

	n.mu.Lock()
	prev := n.current
	n.current = match
	n.mu.Unlock()

	if prev.Planning() && !match.Planning() {
		n.selection.Clear()
	}

	n.logger.WithFields(logrus.Fields{
		"from": prev.Path,
		"to":   match.Path,
		"name": match.Name,
	}).Debug("Navigated")
	return match, resolveErr
}
