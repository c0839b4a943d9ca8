package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"storefront/web/internal/catalog"
	"storefront/web/internal/client"
	"storefront/web/internal/config"
	"storefront/web/internal/domain"
	"storefront/web/internal/metrics"
	"storefront/web/internal/routes"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// CatalogView is the read side of the catalog store.
type CatalogView interface {
	Snapshot() domain.Catalog
	Ready() bool
	Subscribe(fn catalog.Listener) func()
}

type Cart interface {
	Snapshot() domain.CartItems
	Count() int
	Add(ctx context.Context, productID string, entry domain.CartEntry) error
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

type Auth interface {
	State() domain.AuthState
	SignIn(user domain.User)
	SignOut()
}

type Sessions interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, reg client.Registration) (*domain.User, error)
	Logout(ctx context.Context) error
}

type Deps struct {
	Catalog  CatalogView
	Cart     Cart
	Auth     Auth
	Sessions Sessions
	Landing  []domain.LandingCategory
	Gatherer prometheus.Gatherer // Defaults to the global registry
}

// Server renders the storefront. The route table is derived from the catalog
// and swapped whole on every catalog change.
type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	router chi.Router
	views  *views
	pages  map[domain.RouteKind]pageFunc

	table       atomic.Pointer[routes.Table]
	rebuildMu   sync.Mutex
	built       bool
	version     uint64 // Catalog version of the current table
	unsubscribe func()
}

func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	v, err := parseViews()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:   cfg,
		deps:  deps,
		views: v,
	}
	s.pages = s.pageTable()
	s.router = s.routes()

	s.unsubscribe = deps.Catalog.Subscribe(s.rebuild)
	s.rebuild(deps.Catalog.Snapshot())

	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", s.getCart)
		r.Delete("/cart", s.clearCart)
		r.Post("/cart/{productID}", s.addToCart)
		r.Put("/cart/{productID}", s.updateCartItem)
		r.Delete("/cart/{productID}", s.removeCartItem)

		r.Post("/session", s.login)
		r.Delete("/session", s.logout)
		r.Post("/register", s.register)

		r.Get("/routes", s.listRoutes)
	})

	// Everything else is a storefront path looked up in the route table.
	r.NotFound(s.serveStorefront)

	return r
}

// rebuild derives a fresh route table from c and publishes it. Snapshots
// older than the current table are ignored.
func (s *Server) rebuild(c domain.Catalog) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()
	if s.built && c.Version < s.version {
		return
	}

	table := routes.Resolve(c, routes.Options{Landing: s.deps.Landing})
	s.table.Store(table)
	s.built = true
	s.version = c.Version

	metrics.RouteTableSize.Set(float64(table.Len()))
	metrics.RouteCollisions.Set(float64(len(table.Collisions)))

	for _, col := range table.Collisions {
		log.Warnf("⚠️ Path %s already taken by %s %s, dropping %s %s",
			col.Path, col.Kept.Kind, col.Kept.Path, col.Dropped.Kind, idOf(col.Dropped))
	}
	for _, sk := range table.Skipped {
		log.Debugf("Skipped %s %s: %s", sk.Kind, sk.ID, sk.Reason)
	}
	log.Debugf("Route table rebuilt for catalog v%d with %d paths", c.Version, table.Len())
}

func idOf(d routes.Descriptor) string {
	for _, id := range []string{d.ProductID, d.ProductTypeID, d.SubcategoryID, d.CategoryID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// Table returns the current route table.
func (s *Server) Table() *routes.Table {
	return s.table.Load()
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🌐 Storefront listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("🛑 Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close stops following catalog changes.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
