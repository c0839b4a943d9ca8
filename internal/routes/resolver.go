package routes

import (
	"strings"

	"storefront/web/internal/domain"
)

const (
	PathHome     = "/"
	PathCart     = "/shoppingCart"
	PathRegister = "/register"
	PathLogin    = "/login"
	PathAccount  = "/account"
	PathAdmin    = "/admin"

	productPrefix = "/products/"
)

// Options carries the recognised landing categories. Only subcategories of
// these categories get a /{category}/{subcategory} path.
type Options struct {
	Landing []domain.LandingCategory
}

func (o Options) landingCategory(id string) bool {
	for _, lc := range o.Landing {
		if lc.ID == id {
			return true
		}
	}
	return false
}

// Resolve derives the full path table from a catalog snapshot. It never
// fails: entries whose references do not resolve are skipped and reported.
//
// Order: home, landing pages, subcategories, product types, products, then
// the remaining static pages. On a path collision the first entry wins.
func Resolve(c domain.Catalog, opts Options) *Table {
	t := newTable()

	t.add(Descriptor{Path: PathHome, Kind: domain.RouteHome})
	for _, lc := range opts.Landing {
		t.add(Descriptor{
			Path:       lc.Path,
			Kind:       domain.RouteCategoryLanding,
			CategoryID: lc.ID,
			Featured:   lc.Featured,
		})
	}

	for _, id := range c.Subcategories.IDs() {
		s := c.Subcategories[id]
		if !opts.landingCategory(s.CategoryID) {
			continue
		}
		category, ok := c.Categories[s.CategoryID]
		if !ok {
			t.skip(domain.RouteSubcategory, id, "unknown category "+s.CategoryID)
			continue
		}
		t.add(Descriptor{
			Path:          "/" + CategorySlug(category.Name) + "/" + SubcategorySlug(s.Name),
			Kind:          domain.RouteSubcategory,
			CategoryID:    s.CategoryID,
			SubcategoryID: id,
		})
	}

	// Product types are not filtered by landing category.
	for _, id := range c.ProductTypes.IDs() {
		pt := c.ProductTypes[id]
		s, ok := c.Subcategories[pt.SubcategoryID]
		if !ok {
			t.skip(domain.RouteProductType, id, "unknown subcategory "+pt.SubcategoryID)
			continue
		}
		category, ok := c.Categories[s.CategoryID]
		if !ok {
			t.skip(domain.RouteProductType, id, "unknown category "+s.CategoryID)
			continue
		}
		t.add(Descriptor{
			Path:          "/" + CategorySlug(category.Name) + "/" + SubcategorySlug(s.Name) + "/" + ProductTypeSlug(pt.Name),
			Kind:          domain.RouteProductType,
			CategoryID:    s.CategoryID,
			SubcategoryID: pt.SubcategoryID,
			ProductTypeID: id,
		})
	}

	for _, id := range c.Products.IDs() {
		t.add(Descriptor{
			Path:      ProductPath(id),
			Kind:      domain.RouteProduct,
			ProductID: id,
		})
	}

	t.add(Descriptor{Path: PathCart, Kind: domain.RouteCart})
	t.add(Descriptor{Path: PathRegister, Kind: domain.RouteRegister})
	t.add(Descriptor{Path: PathLogin, Kind: domain.RouteLogin})
	t.add(Descriptor{Path: PathAccount, Kind: domain.RouteAccount})
	t.add(Descriptor{Path: PathAdmin, Kind: domain.RouteAdmin})

	return t
}

func CategorySlug(name string) string {
	return strings.ToLower(name)
}

func SubcategorySlug(name string) string {
	return strings.ToLower(name)
}

// ProductTypeSlug lowercases the name and replaces every space with '+'.
func ProductTypeSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "+")
}

func ProductPath(id string) string {
	return productPrefix + id
}
