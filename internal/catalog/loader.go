package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/web/internal/domain"
	"storefront/web/internal/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source is the catalog backend. Implemented by the HTTP client and by the
// database repository.
type Source interface {
	FetchCategories(ctx context.Context) (domain.Categories, error)
	FetchSubcategories(ctx context.Context) (domain.Subcategories, error)
	FetchProductTypes(ctx context.Context) (domain.ProductTypes, error)
	FetchProducts(ctx context.Context) (domain.Products, error)
}

type Loader struct {
	source Source
	store  *Store
}

func NewLoader(source Source, store *Store) *Loader {
	return &Loader{
		source: source,
		store:  store,
	}
}

// Load issues the four fetches concurrently. A failing fetch leaves its
// collection empty and does not stop the others; the returned error joins
// every failure for reporting only. Results arriving after ctx is done are
// dropped.
func (l *Loader) Load(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	record := func(name string, err error) {
		metrics.CatalogFetchFailures.WithLabelValues(name).Inc()
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
	}

	g := new(errgroup.Group)

	g.Go(func() error {
		fetchInto(ctx, "categories", l.source.FetchCategories, l.store.SetCategories, record)
		return nil
	})
	g.Go(func() error {
		fetchInto(ctx, "subcategories", l.source.FetchSubcategories, l.store.SetSubcategories, record)
		return nil
	})
	g.Go(func() error {
		fetchInto(ctx, "product_types", l.source.FetchProductTypes, l.store.SetProductTypes, record)
		return nil
	})
	g.Go(func() error {
		fetchInto(ctx, "products", l.source.FetchProducts, l.store.SetProducts, record)
		return nil
	})

	_ = g.Wait()

	if !l.store.Ready() {
		log.Warnf("⚠️ Catalog is not ready after load; storefront stays on the empty shell")
	}

	return errors.Join(errs...)
}

func fetchInto[M ~map[string]V, V any](
	ctx context.Context,
	name string,
	fetch func(context.Context) (M, error),
	set func(M),
	record func(string, error),
) {
	items, err := fetch(ctx)
	if ctx.Err() != nil {
		log.Debugf("Dropping %s fetch result: %v", name, ctx.Err())
		return
	}
	if err != nil {
		log.Errorf("❌ Failed to fetch %s: %v", name, err)
		record(name, err)
		return
	}

	set(items)
	log.Infof("✅ Loaded %d %s", len(items), name)
}
