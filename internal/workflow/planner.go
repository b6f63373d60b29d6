// Package workflow drives the plan-trip screen: it edits the draft, opens
// the weather panel for the selected area and submits the trip.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/internal/panel"
	"github.com/grovetools/areatrip/internal/routes"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/sirupsen/logrus"
)

// EmptyText is shown on the plan-trip screen while no area is selected.
const EmptyText = "Select the area"

// ErrSubmitInFlight is returned while a previous submission is running.
var ErrSubmitInFlight = errors.New("trip submission already in progress")

// UserSource gates actions on the session.
type UserSource interface {
	RequireUser(action string) (models.Identity, error)
}

// TripCreator persists a draft.
type TripCreator interface {
	CreateTrip(ctx context.Context, ownerID string, draft models.TripDraft) (string, error)
}

// Navigator moves between screens.
type Navigator interface {
	Navigate(path string) (routes.Match, error)
}

// Defaults seed every new draft.
type Defaults struct {
	Name string
	Note string
}

// Form is a snapshot of the plan-trip screen.
type Form struct {
	Area       *models.ClickedArea
	Name       string
	Date       time.Time
	Note       string
	Submitting bool
}

// Planner owns the draft of the plan-trip screen.
type Planner struct {
	store    *store.Store
	panel    *panel.Controller
	users    UserSource
	trips    TripCreator
	nav      Navigator
	logger   *logrus.Entry
	defaults Defaults
	now      func() time.Time

	mu       sync.Mutex
	name     string
	date     time.Time
	note     string
	inFlight bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithDefaults overrides the draft defaults. Empty fields keep the built-in
// values.
func WithDefaults(d Defaults) Option {
	return func(p *Planner) {
		if d.Name != "" {
			p.defaults.Name = d.Name
		}
		if d.Note != "" {
			p.defaults.Note = d.Note
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// NewPlanner creates a planner with a fresh draft.
func NewPlanner(st *store.Store, pc *panel.Controller, users UserSource, trips TripCreator, nav Navigator, logger *logrus.Entry, opts ...Option) *Planner {
	p := &Planner{
		store:    st,
		panel:    pc,
		users:    users,
		trips:    trips,
		nav:      nav,
		logger:   logger,
		defaults: Defaults{Name: models.DefaultTripName, Note: models.DefaultTripNote},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.reset()
	return p
}

func (p *Planner) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = p.defaults.Name
	p.note = p.defaults.Note
	p.date = p.now()
}

// SetName edits the trip name.
func (p *Planner) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

// SetDate edits the trip date. A nil date means today.
func (p *Planner) SetDate(date *time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if date == nil {
		p.date = p.now()
		return
	}
	p.date = *date
}

// SetNote edits the single trip note.
func (p *Planner) SetNote(note string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.note = note
}

// Form returns the current screen state.
func (p *Planner) Form() Form {
	area := p.store.GetState().Areas.ClickedArea
	p.mu.Lock()
	defer p.mu.Unlock()
	f := Form{Name: p.name, Date: p.date, Note: p.note, Submitting: p.inFlight}
	if area != nil {
		copied := *area
		f.Area = &copied
	}
	return f
}

// Draft builds the trip draft for the selected area.
func (p *Planner) Draft() (models.TripDraft, error) {
	area := p.store.GetState().Areas.ClickedArea
	if area == nil {
		return models.TripDraft{}, apperrors.NoAreaSelected()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	draft := models.NewDraft(*area, p.date)
	draft.Name = p.name
	draft.Notes = []string{p.note}
	return draft, nil
}

// CanSubmit reports the first gate that blocks a submission: session not
// loaded, anonymous user, no selected area, submission in flight.
func (p *Planner) CanSubmit() error {
	if _, err := p.users.RequireUser("submit trip"); err != nil {
		return err
	}
	if p.store.GetState().Areas.ClickedArea == nil {
		return apperrors.NoAreaSelected()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return ErrSubmitInFlight
	}
	return nil
}

// OpenWeather points the weather widget at the selected area and shows it.
func (p *Planner) OpenWeather() error {
	area := p.store.GetState().Areas.ClickedArea
	if area == nil {
		return apperrors.NoAreaSelected()
	}
	p.store.Dispatch(store.ReinitializeWeather(true))
	p.store.Dispatch(store.SetWeatherLocation(area.Position))
	p.panel.SetContext(store.PanelWeather, true)
	return nil
}

// Submit persists the draft. The write runs to completion even when ctx is
// cancelled; on success the planner navigates home and starts a new draft.
func (p *Planner) Submit(ctx context.Context) (string, error) {
	user, err := p.users.RequireUser("submit trip")
	if err != nil {
		return "", err
	}
	draft, err := p.Draft()
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	log := p.logger.WithFields(logrus.Fields{"owner": user.UID, "area_id": draft.AreaID})
	id, err := p.trips.CreateTrip(context.WithoutCancel(ctx), user.UID, draft)
	if err != nil {
		log.WithError(err).Warn("Trip submission failed")
		return "", err
	}

	p.reset()
	if _, err := p.nav.Navigate(routes.PathHome); err != nil {
		log.WithError(err).Warn("Navigation after submit failed")
	}
	log.WithField("doc_id", id).Info("Trip submitted")
	return id, nil
}

// TogglePanel shows or hides the side panel without changing its content.
func (p *Planner) TogglePanel() {
	p.panel.Toggle()
}

// FollowMenu closes the side panel and opens the entry's screen.
func (p *Planner) FollowMenu(item panel.MenuItem) (routes.Match, error) {
	return p.panel.Follow(item, p.nav)
}

// Close leaves the plan-trip screen.
func (p *Planner) Close() error {
	_, err := p.nav.Navigate(routes.PathHome)
	return err
}
