package domain

import "sort"

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"category_name"` // Display name, lowercased into the path segment
}

type Subcategory struct {
	ID         string `json:"_id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"subcategory_name"`
}

type ProductType struct {
	ID            string `json:"_id"`
	SubcategoryID string `json:"subcategory_id"`
	Name          string `json:"product_type_name"`
}

type Product struct {
	ID            string   `json:"_id"`
	Name          string   `json:"product_name,omitempty"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price,omitempty"`
	ProductTypeID string   `json:"product_type_id,omitempty"`
	Images        []string `json:"images,omitempty"`
}

// Keyed collections as returned by the backend.
type (
	Categories    map[string]Category
	Subcategories map[string]Subcategory
	ProductTypes  map[string]ProductType
	Products      map[string]Product
)

func (c Categories) IDs() []string    { return sortedKeys(c) }
func (s Subcategories) IDs() []string { return sortedKeys(s) }
func (p ProductTypes) IDs() []string  { return sortedKeys(p) }
func (p Products) IDs() []string      { return sortedKeys(p) }

// Catalog is an immutable view of all four collections.
type Catalog struct {
	Categories    Categories
	Subcategories Subcategories
	ProductTypes  ProductTypes
	Products      Products
	Version       uint64
}

// Ready reports whether the taxonomy is complete enough to route on.
// Products are not part of the gate.
func (c Catalog) Ready() bool {
	return len(c.Categories) > 0 && len(c.Subcategories) > 0 && len(c.ProductTypes) > 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
