package guard

import (
	"testing"

	"storefront/web/internal/domain"
	"storefront/web/internal/routes"

	"github.com/stretchr/testify/assert"
)

func testTable() *routes.Table {
	c := domain.Catalog{
		Categories:    domain.Categories{"c1": {ID: "c1", Name: "Barbati"}},
		Subcategories: domain.Subcategories{"s1": {ID: "s1", CategoryID: "c1", Name: "Haine"}},
		ProductTypes:  domain.ProductTypes{"t1": {ID: "t1", SubcategoryID: "s1", Name: "Blugi"}},
		Products:      domain.Products{"p1": {ID: "p1"}},
	}
	return routes.Resolve(c, routes.Options{Landing: []domain.LandingCategory{{ID: "c1", Path: "/barbati"}}})
}

func TestDecide(t *testing.T) {
	table := testTable()

	tests := []struct {
		path  string
		table *routes.Table
		want  Layout
	}{
		{path: "/", table: table, want: Chrome},
		{path: "/barbati/haine", table: table, want: Chrome},
		{path: "/barbati/haine/blugi", table: table, want: Chrome},
		{path: "/products/p1", table: table, want: Chrome},
		{path: "/account", table: table, want: Chrome},
		{path: "/unknown/xyz", table: table, want: NotFound},
		{path: "/products/p2", table: table, want: NotFound},
		{path: "/Barbati/haine", table: table, want: NotFound},
		{path: "/admin", table: table, want: Bare},
		{path: "/admin", table: nil, want: Bare},
		{path: "/unknown/xyz", table: nil, want: NotFound},
		{path: "/", table: nil, want: NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.path, tt.table))
		})
	}
}

func TestProtect(t *testing.T) {
	pending := Protect(domain.Pending())
	assert.Equal(t, Suppress, pending.Action)
	assert.Empty(t, pending.To)

	var zero domain.AuthState
	assert.Equal(t, Suppress, Protect(zero).Action)

	authed := Protect(domain.Authenticated(domain.User{ID: "u1"}))
	assert.Equal(t, Render, authed.Action)
	assert.Equal(t, "u1", authed.User.ID)

	anon := Protect(domain.Anonymous())
	assert.Equal(t, Redirect, anon.Action)
	assert.Equal(t, "/login", anon.To)
	assert.True(t, anon.Replace)
}
