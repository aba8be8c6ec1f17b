// Package memory implements ports.OrderStore in process memory. It backs local
// runs and tests; production uses the postgres adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

// Store keeps orders in a map guarded by one mutex. Every read returns a clone.
type Store struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{orders: make(map[string]*domain.Order), now: time.Now}
}

// GetByID returns a copy of the stored order.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Create stores a copy of order with version 1.
func (s *Store) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return domain.ErrOrderExists
	}
	stored := order.Clone()
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	stored.Version = 1
	s.orders[order.ID] = stored

	order.Version = stored.Version
	order.CreatedAt = stored.CreatedAt
	order.UpdatedAt = stored.UpdatedAt
	return nil
}

// Update applies patch when the stored version still equals patch.ExpectedVersion.
func (s *Store) Update(_ context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Version != patch.ExpectedVersion {
		return nil, domain.ErrVersionConflict
	}
	if patch.Empty() {
		return o.Clone(), nil
	}
	o.Apply(patch, s.now().UTC())
	return o.Clone(), nil
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
