package store

import (
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

type ChangeKind string

const (
	ChangeLogin             ChangeKind = "user_logged_in"
	ChangeRegister          ChangeKind = "user_registered"
	ChangeLogout            ChangeKind = "user_logged_out"
	ChangeProfileUpdated    ChangeKind = "profile_updated"
	ChangeProductCreated    ChangeKind = "product_created"
	ChangeProductUpdated    ChangeKind = "product_updated"
	ChangeProductDeleted    ChangeKind = "product_deleted"
	ChangeCartUpdated       ChangeKind = "cart_updated"
	ChangeCartCleared       ChangeKind = "cart_cleared"
	ChangePurchaseCompleted ChangeKind = "purchase_completed"
)

// Change describes one committed mutation. Keys lists the slots that were
// persisted for it.
type Change struct {
	Kind      ChangeKind
	Keys      []repo.Key
	At        time.Time
	UserID    string
	ProductID string
	Product   *models.Product
	Purchases []models.Purchase
}

// Subscribe registers fn to be called after every committed change, in the
// order the changes were committed. fn runs without the store lock held, so
// it may read from the store, but it should not block: one slow subscriber
// delays every later notification.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// dispatch delivers queued changes. Only one goroutine drains at a time; a
// caller that finds a drain in progress leaves its change to that goroutine,
// which keeps delivery in commit order and lets subscribers mutate the store
// without deadlocking.
func (s *Store) dispatch() {
	s.queueMu.Lock()
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true

	for {
		// the flag is cleared in the same critical section that sees the
		// queue empty, so a change appended concurrently is never stranded
		if len(s.pending) == 0 {
			s.draining = false
			s.queueMu.Unlock()
			return
		}
		ch := s.pending[0]
		s.pending[0] = Change{}
		s.pending = s.pending[1:]
		s.queueMu.Unlock()

		s.deliver(ch)
		s.queueMu.Lock()
	}
}

// deliver releases the drain if a subscriber panics, so later changes are
// still dispatched.
func (s *Store) deliver(ch Change) {
	delivered := false
	defer func() {
		if !delivered {
			s.queueMu.Lock()
			s.draining = false
			s.queueMu.Unlock()
		}
	}()
	s.notify(ch)
	delivered = true
}

func (s *Store) notify(ch Change) {
	s.subsMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
