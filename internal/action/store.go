// internal/action/store.go
package action

import (
	"fmt"
	"sync"
)

// Store holds the single pending action of a room.
type Store interface {
	SetActive(ctx *ActionContext) error
	Active() (*ActionContext, bool)
	Update(ctx *ActionContext) error
	Clear()
}

// PendingActionStore is the in-memory Store. Rooms own one each; the mutex only
// guards the field itself, turn ordering is the room's job.
type PendingActionStore struct {
	mu     sync.Mutex
	active *ActionContext
}

// NewPendingActionStore returns an empty store.
func NewPendingActionStore() *PendingActionStore {
	return &PendingActionStore{}
}

// SetActive makes ctx the pending action. It fails if one is already pending.
func (s *PendingActionStore) SetActive(ctx *ActionContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return fmt.Errorf("set %s: %w (pending: %s)", ctx, ErrActionAlreadyActive, s.active)
	}
	s.active = ctx
	return nil
}

// Active returns the pending action, if any.
func (s *PendingActionStore) Active() (*ActionContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != nil
}

// Update replaces the pending action with a processed copy of itself.
func (s *PendingActionStore) Update(ctx *ActionContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ErrNoActiveAction
	}
	if s.active.ID() != ctx.ID() {
		return fmt.Errorf("%w: update %s while %s is pending", ErrInvalidOperation, ctx, s.active)
	}
	s.active = ctx
	return nil
}

// Clear drops the pending action unconditionally.
func (s *PendingActionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}
