package catalog

import (
	"sync"

	"storefront/web/internal/domain"
)

// Listener receives the newest catalog snapshot after every change.
type Listener func(domain.Catalog)

// Store holds the fetched collections. Each setter replaces a whole
// collection; listeners are notified one change at a time and always with
// the latest snapshot, so a slow listener never sees data go backwards.
type Store struct {
	mu      sync.RWMutex
	catalog domain.Catalog

	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewStore() *Store {
	return &Store{
		catalog: domain.Catalog{
			Categories:    domain.Categories{},
			Subcategories: domain.Subcategories{},
			ProductTypes:  domain.ProductTypes{},
			Products:      domain.Products{},
		},
		listeners: make(map[int]Listener),
	}
}

func (s *Store) Snapshot() domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

func (s *Store) Ready() bool {
	return s.Snapshot().Ready()
}

func (s *Store) SetCategories(c domain.Categories) {
	s.update(func(cat *domain.Catalog) { cat.Categories = nonNil(c) })
}

func (s *Store) SetSubcategories(sc domain.Subcategories) {
	s.update(func(cat *domain.Catalog) { cat.Subcategories = nonNil(sc) })
}

func (s *Store) SetProductTypes(pt domain.ProductTypes) {
	s.update(func(cat *domain.Catalog) { cat.ProductTypes = nonNil(pt) })
}

func (s *Store) SetProducts(p domain.Products) {
	s.update(func(cat *domain.Catalog) { cat.Products = nonNil(p) })
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) update(apply func(*domain.Catalog)) {
	s.mu.Lock()
	apply(&s.catalog)
	s.catalog.Version++
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	snapshot := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}

func nonNil[M ~map[string]V, V any](m M) M {
	if m == nil {
		return M{}
	}
	return m
}
