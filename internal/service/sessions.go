package service

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("editing session not found or expired")
	ErrTooManySessions = errors.New("too many open editing sessions")
)

// session is one open draft bound to its owner.
type session[T any] struct {
	id       string
	ownerID  string
	targetID string
	draft    T
	lastUsed time.Time
}

// sessionRegistry keeps drafts in memory between requests. Sessions expire
// after ttl without use; Sweep removes them.
type sessionRegistry[T any] struct {
	mu       sync.Mutex
	sessions map[string]*session[T]
	ttl      time.Duration
	max      int
	clock    Clock
	ids      IDGenerator
}

func newSessionRegistry[T any](ttl time.Duration, max int, clock Clock, ids IDGenerator) *sessionRegistry[T] {
	if clock == nil {
		clock = RealClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &sessionRegistry[T]{
		sessions: make(map[string]*session[T]),
		ttl:      ttl,
		max:      max,
		clock:    clock,
		ids:      ids,
	}
}

func (r *sessionRegistry[T]) open(ownerID, targetID string, draft T) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	if r.max > 0 && len(r.sessions) >= r.max {
		return "", ErrTooManySessions
	}
	id := r.ids.New()
	r.sessions[id] = &session[T]{
		id:       id,
		ownerID:  ownerID,
		targetID: targetID,
		draft:    draft,
		lastUsed: r.clock.Now(),
	}
	return id, nil
}

// get returns the session when actor may use it and refreshes its idle timer.
// Sessions of other users look the same as missing ones.
func (r *sessionRegistry[T]) get(actor Actor, id string) (*session[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || r.expired(s) {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	if !actor.owns(s.ownerID) {
		return nil, ErrSessionNotFound
	}
	s.lastUsed = r.clock.Now()
	return s, nil
}

func (r *sessionRegistry[T]) close(actor Actor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || !actor.owns(s.ownerID) {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// closeTarget drops every session editing targetID.
func (r *sessionRegistry[T]) closeTarget(targetID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.targetID == targetID {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *sessionRegistry[T]) expired(s *session[T]) bool {
	return r.ttl > 0 && r.clock.Now().Sub(s.lastUsed) > r.ttl
}

func (r *sessionRegistry[T]) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *sessionRegistry[T]) sweepLocked() int {
	n := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *sessionRegistry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
