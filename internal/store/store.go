// Package store holds the marketplace session state (current user, user
// directory, catalog, cart and purchase history) and keeps it mirrored into a
// repo.Repository.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

const maxIDAttempts = 8

type Store struct {
	repo repo.Repository

	mu    sync.Mutex
	state repo.State

	now   func() time.Time
	newID func() string

	subsMu  sync.Mutex
	subs    map[uint64]func(Change)
	nextSub uint64

	// pending holds committed changes in commit order until dispatched.
	queueMu  sync.Mutex
	pending  []Change
	draining bool
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New loads the persisted state from r.
func New(ctx context.Context, r repo.Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:  r,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		subs:  map[uint64]func(Change){},
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := r.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	s.state = st

	logging.FromContext(ctx).Info("store_loaded",
		"users", len(st.Users),
		"products", len(st.Products),
		"cart_items", len(st.CartItems),
		"purchases", len(st.Purchases),
		"authenticated", st.CurrentUser != nil,
	)
	return s, nil
}

// mutate runs fn against a private copy of the state. When fn returns a
// change with keys, those slots are saved and the copy replaces the live
// state; otherwise nothing is written. The change is queued before the lock
// is released and subscribers see changes in commit order.
func (s *Store) mutate(ctx context.Context, op string, fn func(st *repo.State) (Change, error)) error {
	l := logging.Component(ctx, "store."+op)

	s.mu.Lock()
	next := s.state.Clone()
	ch, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		l.Warn(op+"_rejected", "error", err)
		return err
	}
	if len(ch.Keys) == 0 {
		s.mu.Unlock()
		l.Debug(op + "_noop")
		return nil
	}
	if err := s.repo.Save(ctx, next, ch.Keys...); err != nil {
		s.mu.Unlock()
		l.Error(op+"_persist_error", "keys", ch.Keys, "error", err)
		return fmt.Errorf("persist %s: %w", op, err)
	}
	if ch.At.IsZero() {
		ch.At = s.now()
	}
	s.state = next
	s.queueMu.Lock()
	s.pending = append(s.pending, ch)
	s.queueMu.Unlock()
	s.mu.Unlock()

	l.Info(op+"_success", "kind", ch.Kind, "keys", ch.Keys)
	s.dispatch()
	return nil
}

// freshID returns an id that taken reports as unused.
func (s *Store) freshID(taken func(string) bool) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique id after %d attempts", maxIDAttempts)
}

func (s *Store) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentUser == nil {
		return models.User{}, false
	}
	return *s.state.CurrentUser, true
}

func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.state.Users...)
}

func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.state.Products...)
}

func (s *Store) Product(id string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := productIndex(s.state.Products, id)
	if i < 0 {
		return models.Product{}, false
	}
	return s.state.Products[i], true
}

func (s *Store) CartItems() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.state.CartItems...)
}

func (s *Store) Purchases() []models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Purchase(nil), s.state.Purchases...)
}

func (s *Store) State() repo.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func productIndex(products []models.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func userIndex(users []models.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func cartIndex(items []models.CartItem, productID string) int {
	for i := range items {
		if items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
