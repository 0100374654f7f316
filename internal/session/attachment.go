package session

import (
	"sync"

	"github.com/T-Lind/health-frontend/internal/model"
)

// slot holds at most one attachment for the next outgoing chat turn.
// Methods suffixed Locked expect the shared mutex to be held.
type slot struct {
	mu      *sync.Mutex
	pending *model.Attachment
}

func newSlot(mu *sync.Mutex) *slot {
	return &slot{mu: mu}
}

// Attach snapshots r into the slot, silently replacing any prior value.
func (s *slot) Attach(r model.Record) model.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachLocked(r)
}

func (s *slot) attachLocked(r model.Record) model.Attachment {
	a := r.Snapshot()
	s.pending = &a
	return a
}

// Cancel clears the slot. Idempotent.
func (s *slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Pending reports the current value without consuming it.
func (s *slot) Pending() (model.Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return model.Attachment{}, false
	}
	return *s.pending, true
}

// consume returns the current value and clears the slot in one step.
// A second consume always returns nil.
func (s *slot) consume() *model.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumeLocked()
}

func (s *slot) consumeLocked() *model.Attachment {
	a := s.pending
	s.pending = nil
	return a
}

// clearIfLocked clears the slot when it holds a snapshot of r.
func (s *slot) clearIfLocked(r model.Record) bool {
	if s.pending != nil && s.pending.Matches(r) {
		s.pending = nil
		return true
	}
	return false
}
