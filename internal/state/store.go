// Package state holds the client's application state: an auth slice and a
// file slice, changed only by dispatching actions through a Store.
//
// Reducers are pure; the Store serialises dispatches so each action sees the
// result of the previous one. Side effects (requests, token persistence)
// live in the service package.
package state

import (
	"sync"

	"github.com/and161185/gk-share/internal/model"
)

// Snapshot is a consistent copy of both slices.
type Snapshot struct {
	Auth  AuthState
	Files FileState
}

// Listener observes every dispatch with the action and the resulting state.
type Listener func(a Action, s Snapshot)

// Store is the explicit application state passed to services and views.
type Store struct {
	mu        sync.Mutex
	auth      AuthState
	files     FileState
	listeners []Listener
}

// NewStore returns a store with empty slices.
func NewStore() *Store {
	return &Store{}
}

// Dispatch reduces a into both slices and notifies listeners.
func (s *Store) Dispatch(a Action) Snapshot {
	s.mu.Lock()
	s.auth = ReduceAuth(s.auth, a)
	s.files = ReduceFiles(s.files, a)
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(a, snap)
	}
	return snap
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	f := s.files
	f.Files = model.CloneFiles(s.files.Files)
	return Snapshot{Auth: s.auth, Files: f}
}

// Subscribe registers l for all later dispatches.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
