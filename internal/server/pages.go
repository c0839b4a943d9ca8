package server

import (
	"html/template"
	"net/http"
	"sort"
	"strings"

	"storefront/web/internal/domain"
	"storefront/web/internal/guard"
	"storefront/web/internal/metrics"
	"storefront/web/internal/routes"

	log "github.com/sirupsen/logrus"
)

// view is what a page handler wants shown. Content is rendered inside the
// navigation chrome unless redirect is set.
type view struct {
	title    string
	template string // Empty renders the chrome with no content
	data     any
	status   int
	redirect string
}

type pageFunc func(r *http.Request, d routes.Descriptor, c domain.Catalog, table *routes.Table) view

func (s *Server) pageTable() map[domain.RouteKind]pageFunc {
	return map[domain.RouteKind]pageFunc{
		domain.RouteHome:            s.homePage,
		domain.RouteCategoryLanding: s.landingPage,
		domain.RouteSubcategory:     s.subcategoryPage,
		domain.RouteProductType:     s.productTypePage,
		domain.RouteProduct:         s.productPage,
		domain.RouteCart:            s.cartPage,
		domain.RouteRegister:        staticPage("register", domain.RouteRegister),
		domain.RouteLogin:           staticPage("login", domain.RouteLogin),
		domain.RouteAccount:         s.accountPage,
	}
}

type link struct {
	Path  string
	Label string
}

type navData struct {
	Links     []link
	CartCount int
	User      *domain.User
	Pending   bool
}

type chromeData struct {
	Title string
	Nav   navData
	Body  template.HTML
}

type productCard struct {
	Path  string
	Name  string
	Price float64
	Image string
}

type cartLine struct {
	ProductID string
	Path      string
	Entry     domain.CartEntry
}

// serveStorefront resolves a storefront path against the current route table.
func (s *Server) serveStorefront(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Path
	table := s.Table()

	switch guard.Decide(path, table) {
	case guard.Bare:
		s.renderAdmin(w)
		return
	case guard.NotFound:
		s.renderNotFound(w)
		return
	}

	// Known paths show nothing but the outer shell until the taxonomy has
	// loaded.
	if !s.deps.Catalog.Ready() {
		metrics.PageViews.WithLabelValues("shell").Inc()
		s.write(w, http.StatusOK, "shell", nil)
		return
	}

	d, _ := table.Lookup(path)
	page, ok := s.pages[d.Kind]
	if !ok {
		s.renderNotFound(w)
		return
	}

	v := page(r, d, s.deps.Catalog.Snapshot(), table)
	if v.redirect != "" {
		http.Redirect(w, r, v.redirect, http.StatusFound)
		return
	}
	if v.status == http.StatusNotFound {
		s.renderNotFound(w)
		return
	}
	s.renderChrome(w, v, table)
}

func (s *Server) renderChrome(w http.ResponseWriter, v view, table *routes.Table) {
	var body template.HTML
	if v.template != "" {
		var err error
		body, err = s.views.fragment(v.template, v.data)
		if err != nil {
			log.Errorf("❌ Failed to render %s: %v", v.template, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	status := v.status
	if status == 0 {
		status = http.StatusOK
	}
	metrics.PageViews.WithLabelValues(guard.Chrome.String()).Inc()
	s.write(w, status, "chrome", chromeData{
		Title: v.title,
		Nav:   s.nav(table),
		Body:  body,
	})
}

func (s *Server) renderNotFound(w http.ResponseWriter) {
	metrics.PageViews.WithLabelValues(guard.NotFound.String()).Inc()
	s.write(w, http.StatusNotFound, "notfound", nil)
}

func (s *Server) renderAdmin(w http.ResponseWriter) {
	metrics.PageViews.WithLabelValues(guard.Bare.String()).Inc()

	c := s.deps.Catalog.Snapshot()
	table := s.Table()
	s.write(w, http.StatusOK, "admin", map[string]any{
		"Ready":         c.Ready(),
		"Categories":    len(c.Categories),
		"Subcategories": len(c.Subcategories),
		"ProductTypes":  len(c.ProductTypes),
		"Products":      len(c.Products),
		"Paths":         table.Len(),
		"Collisions":    table.Collisions,
		"Skipped":       table.Skipped,
	})
}

func (s *Server) write(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := s.views.render(&buf, name, data); err != nil {
		log.Errorf("❌ Failed to render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// nav builds the navigation chrome: landing links, cart badge and identity.
func (s *Server) nav(table *routes.Table) navData {
	c := s.deps.Catalog.Snapshot()
	n := navData{
		Links:     s.landingLinks(c, table),
		CartCount: s.deps.Cart.Count(),
	}

	state := s.deps.Auth.State()
	if user, ok := state.User(); ok {
		n.User = &user
	}
	n.Pending = state.Status() == domain.AuthPending
	return n
}

func (s *Server) landingLinks(c domain.Catalog, table *routes.Table) []link {
	links := make([]link, 0, len(s.deps.Landing))
	for _, lc := range s.deps.Landing {
		if !table.Has(lc.Path) {
			continue
		}
		label := strings.TrimPrefix(lc.Path, "/")
		if cat, ok := c.Categories[lc.ID]; ok {
			label = cat.Name
		}
		links = append(links, link{Path: lc.Path, Label: label})
	}
	return links
}

func staticPage(name string, kind domain.RouteKind) pageFunc {
	return func(*http.Request, routes.Descriptor, domain.Catalog, *routes.Table) view {
		return view{title: kind.GetTitle(), template: name}
	}
}

func (s *Server) homePage(_ *http.Request, _ routes.Descriptor, c domain.Catalog, table *routes.Table) view {
	return view{
		title:    domain.RouteHome.GetTitle(),
		template: "home",
		data:     map[string]any{"Landing": s.landingLinks(c, table)},
	}
}

func (s *Server) landingPage(_ *http.Request, d routes.Descriptor, c domain.Catalog, table *routes.Table) view {
	category := c.Categories[d.CategoryID]
	if category.Name == "" {
		category.Name = strings.TrimPrefix(d.Path, "/")
	}

	var subcategories []link
	for _, id := range c.Subcategories.IDs() {
		if c.Subcategories[id].CategoryID != d.CategoryID {
			continue
		}
		if p, ok := table.PathOf(domain.RouteSubcategory, id); ok {
			subcategories = append(subcategories, link{Path: p, Label: c.Subcategories[id].Name})
		}
	}

	// Featured product types are matched by name within the category.
	var featured []link
	for _, name := range d.Featured {
		for _, id := range c.ProductTypes.IDs() {
			pt := c.ProductTypes[id]
			if !strings.EqualFold(pt.Name, name) || c.Subcategories[pt.SubcategoryID].CategoryID != d.CategoryID {
				continue
			}
			if p, ok := table.PathOf(domain.RouteProductType, id); ok {
				featured = append(featured, link{Path: p, Label: pt.Name})
				break
			}
		}
	}

	return view{
		title:    category.Name,
		template: "landing",
		data: map[string]any{
			"Category":      category,
			"Subcategories": subcategories,
			"Featured":      featured,
		},
	}
}

func (s *Server) subcategoryPage(_ *http.Request, d routes.Descriptor, c domain.Catalog, table *routes.Table) view {
	sub, ok := c.Subcategories[d.SubcategoryID]
	if !ok {
		return view{status: http.StatusNotFound}
	}

	var productTypes []link
	typeIDs := make(map[string]bool)
	for _, id := range c.ProductTypes.IDs() {
		pt := c.ProductTypes[id]
		if pt.SubcategoryID != sub.ID {
			continue
		}
		typeIDs[id] = true
		if p, ok := table.PathOf(domain.RouteProductType, id); ok {
			productTypes = append(productTypes, link{Path: p, Label: pt.Name})
		}
	}

	return view{
		title:    sub.Name,
		template: "subcategory",
		data: map[string]any{
			"Category":     c.Categories[d.CategoryID],
			"Subcategory":  sub,
			"ProductTypes": productTypes,
			"Products":     productCards(c, table, func(p domain.Product) bool { return typeIDs[p.ProductTypeID] }),
		},
	}
}

func (s *Server) productTypePage(_ *http.Request, d routes.Descriptor, c domain.Catalog, table *routes.Table) view {
	pt, ok := c.ProductTypes[d.ProductTypeID]
	if !ok {
		return view{status: http.StatusNotFound}
	}

	return view{
		title:    pt.Name,
		template: "product_type",
		data: map[string]any{
			"Category":    c.Categories[d.CategoryID],
			"Subcategory": c.Subcategories[d.SubcategoryID],
			"ProductType": pt,
			"Products":    productCards(c, table, func(p domain.Product) bool { return p.ProductTypeID == pt.ID }),
		},
	}
}

func (s *Server) productPage(_ *http.Request, d routes.Descriptor, c domain.Catalog, _ *routes.Table) view {
	p, ok := c.Products[d.ProductID]
	if !ok {
		return view{status: http.StatusNotFound}
	}
	if p.ID == "" {
		p.ID = d.ProductID
	}

	return view{
		title:    p.Name,
		template: "product",
		data: map[string]any{
			"Product": p,
			"InCart":  s.deps.Cart.Snapshot()[p.ID].Quantity,
		},
	}
}

func (s *Server) cartPage(_ *http.Request, _ routes.Descriptor, _ domain.Catalog, table *routes.Table) view {
	items := s.deps.Cart.Snapshot()

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]cartLine, 0, len(ids))
	total := 0.0
	for _, id := range ids {
		entry := items[id]
		path, _ := table.PathOf(domain.RouteProduct, id)
		lines = append(lines, cartLine{ProductID: id, Path: path, Entry: entry})
		total += entry.Price * float64(entry.Quantity)
	}

	return view{
		title:    domain.RouteCart.GetTitle(),
		template: "cart",
		data: map[string]any{
			"Lines": lines,
			"Count": items.Count(),
			"Total": total,
		},
	}
}

// accountPage is the protected route: nothing while the session check is
// pending, a redirect to login for anonymous visitors.
func (s *Server) accountPage(_ *http.Request, _ routes.Descriptor, _ domain.Catalog, _ *routes.Table) view {
	outcome := guard.Protect(s.deps.Auth.State())
	switch outcome.Action {
	case guard.Render:
		return view{
			title:    domain.RouteAccount.GetTitle(),
			template: "account",
			data:     map[string]any{"User": outcome.User},
		}
	case guard.Redirect:
		return view{redirect: outcome.To}
	default:
		return view{title: domain.RouteAccount.GetTitle()}
	}
}

func productCards(c domain.Catalog, table *routes.Table, keep func(domain.Product) bool) []productCard {
	var cards []productCard
	for _, id := range c.Products.IDs() {
		p := c.Products[id]
		if !keep(p) {
			continue
		}
		path, ok := table.PathOf(domain.RouteProduct, id)
		if !ok {
			continue
		}
		card := productCard{Path: path, Name: p.Name, Price: p.Price}
		if len(p.Images) > 0 {
			card.Image = p.Images[0]
		}
		cards = append(cards, card)
	}
	return cards
}
