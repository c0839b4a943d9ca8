package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"storefront/web/internal/domain"
	"storefront/web/internal/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("cart item not found")

// Mirror receives persisted carts of signed-in users.
type Mirror interface {
	UpdateCart(ctx context.Context, items domain.CartItems) error
}

// AuthState reports the current session state.
type AuthState interface {
	State() domain.AuthState
}

type Options struct {
	Key          string // Storage key, defaults to cartItems
	Origin       string // Identifies this context on the bus, random when empty
	PersistEmpty bool   // Also write an empty cart to storage
	Mirror       Mirror
	Auth         AuthState
}

// Synchronizer owns the cart of one storefront context. In-context mutations
// are visible immediately and written to storage before the call returns;
// changes from other contexts arrive over the bus and replace the local
// cart wholesale (last writer wins, no merge).
type Synchronizer struct {
	storage Storage
	bus     Bus
	opts    Options

	mu      sync.RWMutex
	items   domain.CartItems
	seq     uint64
	lastSeq map[string]uint64 // Highest sequence adopted per origin

	listenersMu sync.Mutex
	listeners   map[int]func(domain.CartItems)
	nextID      int
}

// New loads the stored cart once. Missing or malformed data yields an empty
// cart; storage errors are logged, never returned.
func New(ctx context.Context, storage Storage, bus Bus, opts Options) *Synchronizer {
	if opts.Key == "" {
		opts.Key = domain.CartStorageKey
	}
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}

	s := &Synchronizer{
		storage:   storage,
		bus:       bus,
		opts:      opts,
		items:     domain.CartItems{},
		lastSeq:   make(map[string]uint64),
		listeners: make(map[int]func(domain.CartItems)),
	}

	raw, ok, err := storage.Get(ctx, opts.Key)
	switch {
	case err != nil:
		log.Warnf("⚠️ Failed to read stored cart, starting empty: %v", err)
	case !ok:
		log.Debugf("No stored cart under %s", opts.Key)
	default:
		items, err := decodeItems(raw)
		if err != nil {
			log.Warnf("⚠️ Stored cart under %s is malformed, starting empty: %v", opts.Key, err)
			break
		}
		s.items = items
		log.Infof("🛒 Restored cart with %d entries", len(items))
	}

	return s
}

func (s *Synchronizer) Origin() string {
	return s.opts.Origin
}

// Snapshot returns a copy of the current cart.
func (s *Synchronizer) Snapshot() domain.CartItems {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

func (s *Synchronizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Count()
}

// OnChange registers fn for every cart change, local or adopted. It returns
// a func that removes the listener.
func (s *Synchronizer) OnChange(fn func(domain.CartItems)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

// Add puts entry into the cart, adding to the quantity of an existing line.
func (s *Synchronizer) Add(ctx context.Context, productID string, entry domain.CartEntry) error {
	if entry.Quantity <= 0 {
		entry.Quantity = 1
	}
	return s.mutate(ctx, func(items domain.CartItems) error {
		if existing, ok := items[productID]; ok {
			existing.Quantity += entry.Quantity
			items[productID] = existing
			return nil
		}
		items[productID] = entry
		return nil
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return s.mutate(ctx, func(items domain.CartItems) error {
		entry, ok := items[productID]
		if !ok {
			return ErrNotFound
		}
		if quantity <= 0 {
			delete(items, productID)
			return nil
		}
		entry.Quantity = quantity
		items[productID] = entry
		return nil
	})
}

func (s *Synchronizer) Remove(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(items domain.CartItems) error {
		if _, ok := items[productID]; !ok {
			return ErrNotFound
		}
		delete(items, productID)
		return nil
	})
}

func (s *Synchronizer) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(items domain.CartItems) error {
		for k := range items {
			delete(items, k)
		}
		return nil
	})
}

// Replace sets the whole cart.
func (s *Synchronizer) Replace(ctx context.Context, next domain.CartItems) error {
	return s.mutate(ctx, func(items domain.CartItems) error {
		for k := range items {
			delete(items, k)
		}
		for k, v := range next {
			items[k] = v
		}
		return nil
	})
}

func (s *Synchronizer) mutate(ctx context.Context, apply func(domain.CartItems) error) error {
	s.mu.Lock()
	next := s.items.Clone()
	if err := apply(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	s.seq++
	seq := s.seq

	// An empty cart is not written unless configured; the previous value
	// stays in storage.
	persist := len(next) > 0 || s.opts.PersistEmpty
	var (
		raw      string
		writeErr error
	)
	if persist {
		raw, writeErr = s.write(ctx, next)
	}
	s.mu.Unlock()

	s.notify()

	if !persist {
		return nil
	}
	if writeErr != nil {
		return writeErr
	}

	change := domain.CartChange{Key: s.opts.Key, Value: raw, Origin: s.opts.Origin, Sequence: seq}
	if err := s.bus.Publish(ctx, change); err != nil {
		log.Warnf("⚠️ Failed to announce cart change: %v", err)
	} else {
		metrics.CartEvents.WithLabelValues("publish").Inc()
	}

	s.mirror(ctx, next)
	return nil
}

func (s *Synchronizer) write(ctx context.Context, items domain.CartItems) (string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to serialize cart: %w", err)
	}
	raw := string(payload)
	if err := s.storage.Set(ctx, s.opts.Key, raw); err != nil {
		return "", fmt.Errorf("failed to persist cart: %w", err)
	}
	metrics.CartEvents.WithLabelValues("persist").Inc()
	return raw, nil
}

func (s *Synchronizer) mirror(ctx context.Context, items domain.CartItems) {
	if s.opts.Mirror == nil || s.opts.Auth == nil {
		return
	}
	if _, ok := s.opts.Auth.State().User(); !ok {
		return
	}
	if err := s.opts.Mirror.UpdateCart(ctx, items); err != nil {
		log.Warnf("⚠️ Failed to mirror cart to backend: %v", err)
	}
}

// Run adopts changes published by other contexts until ctx is done.
func (s *Synchronizer) Run(ctx context.Context) error {
	changes, err := s.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cart changes: %w", err)
	}

	log.Infof("🔄 Listening for cart changes as %s", s.opts.Origin)
	for change := range changes {
		s.Adopt(change)
	}
	return nil
}

// Adopt applies a change from another context. Changes for other keys, our
// own echoes and undecodable values are ignored. Adopted values are not
// written back or re-published.
func (s *Synchronizer) Adopt(change domain.CartChange) bool {
	if change.Key != s.opts.Key || change.Origin == s.opts.Origin {
		return false
	}

	items, err := decodeItems(change.Value)
	if err != nil {
		metrics.CartEvents.WithLabelValues("reject").Inc()
		log.Warnf("⚠️ Ignoring malformed cart change from %s: %v", change.Origin, err)
		return false
	}

	s.mu.Lock()
	// Publishes from one origin can overtake each other; never step back.
	if change.Sequence != 0 && change.Sequence <= s.lastSeq[change.Origin] {
		s.mu.Unlock()
		return false
	}
	s.lastSeq[change.Origin] = change.Sequence
	s.items = items
	s.mu.Unlock()

	metrics.CartEvents.WithLabelValues("adopt").Inc()
	log.Debugf("Adopted cart with %d entries from %s", len(items), change.Origin)

	s.notify()
	return true
}

// notify hands every listener the newest cart, one change at a time.
func (s *Synchronizer) notify() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if len(s.listeners) == 0 {
		return
	}
	items := s.Snapshot()
	for _, fn := range s.listeners {
		fn(items)
	}
}

// decodeItems parses a stored cart. An empty or null value is an empty cart.
func decodeItems(raw string) (domain.CartItems, error) {
	if raw == "" || raw == "null" {
		return domain.CartItems{}, nil
	}
	var items domain.CartItems
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = domain.CartItems{}
	}
	return items, nil
}
