package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Storefront metrics live in their own package so catalog, cart, auth and
// server can all record without importing each other.

var (
	CatalogFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_fetch_failures_total",
		Help: "Catalog collection fetches that failed, by collection",
	}, []string{"collection"})

	RouteTableSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_route_table_paths",
		Help: "Number of paths in the current route table",
	})

	RouteCollisions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_route_table_collisions",
		Help: "Descriptors dropped from the current route table because their path was taken",
	})

	CartEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_events_total",
		Help: "Cart synchronisation events by kind (persist, publish, adopt, reject)",
	}, []string{"kind"})

	AuthOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_auth_outcomes_total",
		Help: "Resolved session checks by outcome",
	}, []string{"outcome"})

	PageViews = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_page_views_total",
		Help: "Storefront pages served, by layout",
	}, []string{"layout"})
)

// Register registers the storefront metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		CatalogFetchFailures,
		RouteTableSize,
		RouteCollisions,
		CartEvents,
		AuthOutcomes,
		PageViews,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
