package catalog

import (
	"sync"
	"testing"

	"storefront/web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReadinessIgnoresProducts(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Ready())

	s.SetProducts(domain.Products{"p1": {ID: "p1"}})
	assert.False(t, s.Ready())

	s.SetCategories(domain.Categories{"c1": {ID: "c1", Name: "Barbati"}})
	s.SetSubcategories(domain.Subcategories{"s1": {ID: "s1", CategoryID: "c1", Name: "Haine"}})
	assert.False(t, s.Ready())

	s.SetProductTypes(domain.ProductTypes{"t1": {ID: "t1", SubcategoryID: "s1", Name: "Blugi"}})
	assert.True(t, s.Ready())

	s.SetProducts(nil)
	assert.True(t, s.Ready())
	assert.NotNil(t, s.Snapshot().Products)

	s.SetSubcategories(domain.Subcategories{})
	assert.False(t, s.Ready())
}

func TestStoreNotifiesWithLatestSnapshot(t *testing.T) {
	s := NewStore()

	var versions []uint64
	unsubscribe := s.Subscribe(func(c domain.Catalog) {
		versions = append(versions, c.Version)
	})

	s.SetCategories(domain.Categories{"c1": {ID: "c1"}})
	s.SetProducts(domain.Products{"p1": {ID: "p1"}})
	require.Equal(t, []uint64{1, 2}, versions)

	unsubscribe()
	s.SetProducts(domain.Products{})
	assert.Len(t, versions, 2)
}

func TestStoreConcurrentSettersEndOnNewest(t *testing.T) {
	s := NewStore()

	var (
		mu   sync.Mutex
		last uint64
	)
	s.Subscribe(func(c domain.Catalog) {
		mu.Lock()
		defer mu.Unlock()
		assert.GreaterOrEqual(t, c.Version, last)
		last = c.Version
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetProducts(domain.Products{})
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), last)
	assert.Equal(t, uint64(50), s.Snapshot().Version)
}
