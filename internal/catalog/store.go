package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Store is the catalog's system of record.
type Store interface {
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	CreateItem(ctx context.Context, it Item) (Item, error)
	// UpdateStock overwrites the quantity (last write wins).
	UpdateStock(ctx context.Context, id string, quantity int) (Item, error)
}

// Seed loads SeedItems into an empty store.
func Seed(ctx context.Context, s Store) (int, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) > 0 {
		return 0, nil
	}
	for _, it := range SeedItems() {
		if _, err := s.CreateItem(ctx, it); err != nil {
			return 0, fmt.Errorf("seed %s: %w", it.Name, err)
		}
	}
	return len(SeedItems()), nil
}

type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]Item
	order  []string
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]Item{}}
}

func (s *MemoryStore) ListItems(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *MemoryStore) GetItem(_ context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it, nil
}

func (s *MemoryStore) CreateItem(_ context.Context, it Item) (Item, error) {
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it.ID = strconv.FormatInt(s.nextID, 10)
	it = it.WithQuantity(it.Quantity)
	s.items[it.ID] = it
	s.order = append(s.order, it.ID)
	return it, nil
}

func (s *MemoryStore) UpdateStock(_ context.Context, id string, quantity int) (Item, error) {
	if quantity < 0 {
		return Item{}, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidItem)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	it = it.WithQuantity(quantity)
	s.items[id] = it
	return it, nil
}
