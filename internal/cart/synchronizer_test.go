package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type failingStorage struct {
	getErr error
	setErr error
}

func (f *failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, f.getErr
}

func (f *failingStorage) Set(context.Context, string, string) error {
	return f.setErr
}

type fakeMirror struct {
	calls []domain.CartItems
	err   error
}

func (m *fakeMirror) UpdateCart(_ context.Context, items domain.CartItems) error {
	m.calls = append(m.calls, items)
	return m.err
}

type fixedAuth struct{ state domain.AuthState }

func (f fixedAuth) State() domain.AuthState { return f.state }

func stored(t *testing.T, s Storage) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(context.Background(), domain.CartStorageKey)
	require.NoError(t, err)
	return v, ok
}

func TestNewRestoresStoredCart(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, domain.CartStorageKey, `{"p1":{"quantity":2,"size":"M"}}`))

	s := New(ctx, storage, NewMemoryBus(), Options{})

	assert.Equal(t, domain.CartItems{"p1": {Quantity: 2, Size: "M"}}, s.Snapshot())
	assert.Equal(t, 2, s.Count())
}

func TestNewFailsSoftToEmpty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		storage Storage
	}{
		{name: "absent", storage: NewMemoryStorage()},
		{name: "malformed", storage: func() Storage {
			st := NewMemoryStorage()
			_ = st.Set(ctx, domain.CartStorageKey, `{"p1":`)
			return st
		}()},
		{name: "wrong shape", storage: func() Storage {
			st := NewMemoryStorage()
			_ = st.Set(ctx, domain.CartStorageKey, `[1,2,3]`)
			return st
		}()},
		{name: "null", storage: func() Storage {
			st := NewMemoryStorage()
			_ = st.Set(ctx, domain.CartStorageKey, `null`)
			return st
		}()},
		{name: "storage error", storage: &failingStorage{getErr: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(ctx, tt.storage, NewMemoryBus(), Options{})
			items := s.Snapshot()
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestMutationWritesStorageSynchronously(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(ctx, storage, NewMemoryBus(), Options{})

	require.NoError(t, s.Add(ctx, "p1", domain.CartEntry{Name: "Blugi", Quantity: 1}))

	v, ok := stored(t, storage)
	require.True(t, ok)
	assert.JSONEq(t, `{"p1":{"name":"Blugi","quantity":1}}`, v)

	require.NoError(t, s.Add(ctx, "p1", domain.CartEntry{Quantity: 2}))
	v, _ = stored(t, storage)
	assert.JSONEq(t, `{"p1":{"name":"Blugi","quantity":3}}`, v)

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 5))
	assert.Equal(t, 5, s.Count())
}

func TestReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(ctx, storage, NewMemoryBus(), Options{})

	items := domain.CartItems{"p1": {Quantity: 1}, "p2": {Quantity: 4}}
	require.NoError(t, s.Replace(ctx, items))
	first, _ := stored(t, storage)

	require.NoError(t, s.Replace(ctx, items))
	second, _ := stored(t, storage)

	assert.Equal(t, first, second)
	assert.Equal(t, items, s.Snapshot())
}

func TestEmptyCartDoesNotClearStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(ctx, storage, NewMemoryBus(), Options{})

	require.NoError(t, s.Add(ctx, "p1", domain.CartEntry{Quantity: 1}))
	require.NoError(t, s.Remove(ctx, "p1"))

	assert.Empty(t, s.Snapshot())
	v, ok := stored(t, storage)
	require.True(t, ok)
	assert.JSONEq(t, `{"p1":{"quantity":1}}`, v, "removing the last item leaves the previous value in storage")

	// A restart therefore resurrects the removed item.
	assert.Equal(t, 1, New(ctx, storage, NewMemoryBus(), Options{}).Count())
}

func TestPersistEmptyOverwritesStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(ctx, storage, NewMemoryBus(), Options{PersistEmpty: true})

	require.NoError(t, s.Add(ctx, "p1", domain.CartEntry{Quantity: 1}))
	require.NoError(t, s.Clear(ctx))

	v, ok := stored(t, storage)
	require.True(t, ok)
	assert.Equal(t, `{}`, v)
	assert.Zero(t, New(ctx, storage, NewMemoryBus(), Options{}).Count())
}

func TestMutationErrors(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, NewMemoryStorage(), NewMemoryBus(), Options{})

	assert.ErrorIs(t, s.Remove(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, s.UpdateQuantity(ctx, "missing", 2), ErrNotFound)

	failing := New(ctx, &failingStorage{setErr: errors.New("disk full")}, NewMemoryBus(), Options{})
	err := failing.Add(ctx, "p1", domain.CartEntry{Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, 1, failing.Count(), "in-context state is updated even when the write fails")
}

func TestAdoptReplacesWithoutMerge(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(ctx, storage, NewMemoryBus(), Options{Origin: "tab-b"})
	require.NoError(t, s.Add(ctx, "local", domain.CartEntry{Quantity: 1}))
	before, _ := stored(t, storage)

	var seen []domain.CartItems
	s.OnChange(func(items domain.CartItems) { seen = append(seen, items) })

	ok := s.Adopt(domain.CartChange{
		Key:      domain.CartStorageKey,
		Value:    `{"remote":{"quantity":7}}`,
		Origin:   "tab-a",
		Sequence: 1,
	})
	require.True(t, ok)

	want := domain.CartItems{"remote": {Quantity: 7}}
	assert.Equal(t, want, s.Snapshot())
	require.Len(t, seen, 1)
	assert.Equal(t, want, seen[0])

	after, _ := stored(t, storage)
	assert.Equal(t, before, after, "adopting does not write back")
}

func TestAdoptIgnoresForeignKeysEchoesAndGarbage(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, NewMemoryStorage(), NewMemoryBus(), Options{Origin: "tab-b"})
	require.NoError(t, s.Add(ctx, "local", domain.CartEntry{Quantity: 1}))
	want := s.Snapshot()

	assert.False(t, s.Adopt(domain.CartChange{Key: "wishlist", Value: `{}`, Origin: "tab-a"}))
	assert.False(t, s.Adopt(domain.CartChange{Key: domain.CartStorageKey, Value: `{}`, Origin: "tab-b"}))
	assert.False(t, s.Adopt(domain.CartChange{Key: domain.CartStorageKey, Value: `not json`, Origin: "tab-a"}))

	assert.Equal(t, want, s.Snapshot())
}

func TestAdoptEmptyValueClearsCart(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, NewMemoryStorage(), NewMemoryBus(), Options{Origin: "tab-b"})
	require.NoError(t, s.Add(ctx, "local", domain.CartEntry{Quantity: 1}))

	require.True(t, s.Adopt(domain.CartChange{Key: domain.CartStorageKey, Value: "", Origin: "tab-a"}))
	assert.Empty(t, s.Snapshot())
}

func TestAdoptDropsOvertakenChanges(t *testing.T) {
	s := New(context.Background(), NewMemoryStorage(), NewMemoryBus(), Options{Origin: "tab-b"})

	require.True(t, s.Adopt(domain.CartChange{Key: domain.CartStorageKey, Value: `{"p":{"quantity":2}}`, Origin: "tab-a", Sequence: 2}))
	assert.False(t, s.Adopt(domain.CartChange{Key: domain.CartStorageKey, Value: `{"p":{"quantity":1}}`, Origin: "tab-a", Sequence: 1}))
	assert.Equal(t, 2, s.Count())

	require.True(t, s.Adopt(domain.CartChange{Key: domain.CartStorageKey, Value: `{"p":{"quantity":9}}`, Origin: "tab-c", Sequence: 1}))
	assert.Equal(t, 9, s.Count())
}

func TestTwoContextsStayInSync(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	storage := NewMemoryStorage()
	bus := NewMemoryBus()

	a := New(ctx, storage, bus, Options{Origin: "tab-a"})
	b := New(ctx, storage, bus, Options{Origin: "tab-b"})

	adopted := make(chan domain.CartItems, 4)
	b.OnChange(func(items domain.CartItems) { adopted <- items })

	done := make(chan error, 2)
	subscribed := make(chan struct{})
	go func() {
		changes, err := bus.Subscribe(ctx)
		if err != nil {
			done <- err
			return
		}
		close(subscribed)
		for change := range changes {
			b.Adopt(change)
		}
		done <- nil
	}()
	go func() { done <- a.Run(ctx) }()
	<-subscribed

	require.NoError(t, a.Add(ctx, "p1", domain.CartEntry{Quantity: 3}))

	select {
	case items := <-adopted:
		assert.Equal(t, domain.CartItems{"p1": {Quantity: 3}}, items)
	case <-time.After(2 * time.Second):
		t.Fatal("change was not delivered to the other context")
	}
	assert.Equal(t, a.Snapshot(), b.Snapshot())

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestMirrorOnlyWhenAuthenticated(t *testing.T) {
	ctx := context.Background()

	mirror := &fakeMirror{}
	anon := New(ctx, NewMemoryStorage(), NewMemoryBus(), Options{Mirror: mirror, Auth: fixedAuth{domain.Anonymous()}})
	require.NoError(t, anon.Add(ctx, "p1", domain.CartEntry{Quantity: 1}))
	assert.Empty(t, mirror.calls)

	mirror.err = errors.New("backend down")
	authed := New(ctx, NewMemoryStorage(), NewMemoryBus(), Options{
		Mirror: mirror,
		Auth:   fixedAuth{domain.Authenticated(domain.User{ID: "u1"})},
	})
	require.NoError(t, authed.Add(ctx, "p1", domain.CartEntry{Quantity: 1}), "mirror failures are not returned")
	require.Len(t, mirror.calls, 1)
	assert.Equal(t, 1, mirror.calls[0].Count())
}
