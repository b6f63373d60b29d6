package store

import (
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Listener observes state changes. It receives the snapshot before and after
// the reduced action. A Listener must not call Dispatch on the same store;
// use SubscribeNested to react with further actions.
type Listener func(prev, next State)

// NestedListener is a Listener that may dispatch follow-up actions through
// dispatch. They are reduced in order after the current round of
// notifications, before the outer Dispatch returns. dispatch is only valid
// for the duration of the call; used later it falls back to Dispatch.
type NestedListener func(dispatch func(Action), prev, next State)

// Store is the single state container of a planner process. It is
// constructed explicitly and handed to the components that need it.
type Store struct {
	// dispatchMu serializes top-level dispatches, so Dispatch returns only
	// after its own action has been reduced and delivered.
	dispatchMu sync.Mutex

	mu        sync.Mutex
	state     State
	listeners map[uint64]NestedListener
	order     []uint64
	nextID    uint64
	queue     []Action
	round     uint64
	notifying bool
	logger    *logrus.Entry
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to trace dispatched actions.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithState overrides the initial snapshot.
func WithState(state State) Option {
	return func(s *Store) {
		s.state = state
	}
}

// New creates a new Store instance.
func New(opts ...Option) *Store {
	s := &Store{
		state:     InitialState(),
		listeners: make(map[uint64]NestedListener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		s.logger = logrus.NewEntry(discard)
	}
	return s
}

// GetState returns the current snapshot.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces the action and notifies listeners before returning.
// Concurrent dispatches are applied one at a time, each fully delivered
// before the next is reduced. Actions a NestedListener dispatches are
// reduced, in order, before the Dispatch that triggered them returns.
func (s *Store) Dispatch(a Action) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue[:0], a)
	for len(s.queue) > 0 {
		action := s.queue[0]
		s.queue = s.queue[1:]

		prev := s.state
		next := Reduce(prev, action)
		s.state = next

		if !Changed(prev, next) {
			s.logger.WithField("action", action.Type).Debug("Action left state unchanged")
			continue
		}
		s.logger.WithField("action", action.Type).Debug("Action reduced")

		listeners := make([]NestedListener, 0, len(s.order))
		for _, id := range s.order {
			listeners = append(listeners, s.listeners[id])
		}
		s.round++
		s.notifying = true
		nested := s.nestedDispatch(s.round)

		s.mu.Unlock()
		for _, l := range listeners {
			s.notify(l, nested, prev, next)
		}
		s.mu.Lock()
		s.notifying = false
	}
}

// nestedDispatch queues actions while round is being delivered.
func (s *Store) nestedDispatch(round uint64) func(Action) {
	return func(a Action) {
		s.mu.Lock()
		if s.notifying && s.round == round {
			s.queue = append(s.queue, a)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.Dispatch(a)
	}
}

// notify runs one listener; a panicking listener does not stop delivery to
// the others.
func (s *Store) notify(l NestedListener, dispatch func(Action), prev, next State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Errorf("Store listener panicked\n%s", debug.Stack())
		}
	}()
	l(dispatch, prev, next)
}

// Subscribe registers a listener. Listeners run in registration order. The
// returned function removes the listener and is safe to call more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	return s.SubscribeNested(func(_ func(Action), prev, next State) {
		l(prev, next)
	})
}

// SubscribeNested registers a listener that may dispatch follow-up actions.
func (s *Store) SubscribeNested(l NestedListener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, existing := range s.order {
				if existing == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// ListenerCount returns the number of active listeners.
func (s *Store) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
