package catalog

import (
	"context"
	"errors"
	"testing"

	"storefront/web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	categories    domain.Categories
	subcategories domain.Subcategories
	productTypes  domain.ProductTypes
	products      domain.Products

	failProducts   error
	failCategories error
	block          chan struct{}
}

func (f *fakeSource) wait(ctx context.Context) {
	if f.block == nil {
		return
	}
	select {
	case <-f.block:
	case <-ctx.Done():
	}
}

func (f *fakeSource) FetchCategories(ctx context.Context) (domain.Categories, error) {
	f.wait(ctx)
	return f.categories, f.failCategories
}

func (f *fakeSource) FetchSubcategories(ctx context.Context) (domain.Subcategories, error) {
	f.wait(ctx)
	return f.subcategories, nil
}

func (f *fakeSource) FetchProductTypes(ctx context.Context) (domain.ProductTypes, error) {
	f.wait(ctx)
	return f.productTypes, nil
}

func (f *fakeSource) FetchProducts(ctx context.Context) (domain.Products, error) {
	f.wait(ctx)
	return f.products, f.failProducts
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		categories:    domain.Categories{"c1": {ID: "c1", Name: "Barbati"}},
		subcategories: domain.Subcategories{"s1": {ID: "s1", CategoryID: "c1", Name: "Haine"}},
		productTypes:  domain.ProductTypes{"t1": {ID: "t1", SubcategoryID: "s1", Name: "Blugi"}},
		products:      domain.Products{"p1": {ID: "p1"}},
	}
}

func TestLoaderPopulatesStore(t *testing.T) {
	store := NewStore()
	notified := 0
	store.Subscribe(func(domain.Catalog) { notified++ })

	err := NewLoader(newFakeSource(), store).Load(context.Background())
	require.NoError(t, err)

	assert.True(t, store.Ready())
	assert.Len(t, store.Snapshot().Products, 1)
	assert.Equal(t, 4, notified)
}

func TestLoaderFailuresAreIndependent(t *testing.T) {
	src := newFakeSource()
	src.failProducts = errors.New("backend down")

	store := NewStore()
	err := NewLoader(src, store).Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "products")
	assert.True(t, store.Ready())
	assert.Empty(t, store.Snapshot().Products)
}

func TestLoaderFailedTaxonomyKeepsStoreNotReady(t *testing.T) {
	src := newFakeSource()
	src.failCategories = errors.New("timeout")

	store := NewStore()
	err := NewLoader(src, store).Load(context.Background())

	require.Error(t, err)
	assert.False(t, store.Ready())
	assert.Len(t, store.Snapshot().Subcategories, 1)
}

func TestLoaderDropsResultsAfterCancellation(t *testing.T) {
	src := newFakeSource()
	src.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore()
	require.NoError(t, NewLoader(src, store).Load(ctx))

	assert.Zero(t, store.Snapshot().Version)
	assert.False(t, store.Ready())
}
