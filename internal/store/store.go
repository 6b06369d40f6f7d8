package store

import (
	"slices"
	"sync"
	"time"
)

// Listener receives the state produced by a dispatch.
type Listener func(State)

type subscription struct {
	id int
	fn Listener
}

// Store holds the State of one session and serializes every change.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []subscription
	nextID    int
	now       func() time.Time
}

// New returns a Store holding Initial().
func New() *Store {
	return NewWithState(Initial())
}

func NewWithState(s State) *Store {
	return &Store{state: s, now: time.Now}
}

// State returns the current snapshot. Snapshots are never modified.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the held state and notifies listeners outside
// the lock.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	next := s.reduce(a)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(next)
	}
	return next
}

// DrainNotifications returns the queued notifications and clears the queue.
func (s *Store) DrainNotifications() []Notification {
	s.mu.Lock()
	queued := s.state.UI.Notifications
	if len(queued) == 0 {
		s.mu.Unlock()
		return nil
	}
	next := s.reduce(NotificationsDrained{})
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(next)
	}
	return queued
}

// Subscribe registers l and returns a func that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(slices.Clone(s.listeners), func(sub subscription) bool {
			return sub.id == id
		})
	}
}

func (s *Store) reduce(a Action) State {
	next := Reduce(s.state, a)
	next.UI.Notifications = stamp(next.UI.Notifications, s.now())
	s.state = next
	return next
}

func stamp(list []Notification, now time.Time) []Notification {
	if !slices.ContainsFunc(list, func(n Notification) bool { return n.At.IsZero() }) {
		return list
	}
	list = slices.Clone(list)
	for i := range list {
		if list[i].At.IsZero() {
			list[i].At = now
		}
	}
	return list
}
