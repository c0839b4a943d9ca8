package routes

import "storefront/web/internal/domain"

// Descriptor tells the router what to render for a path and which catalog
// entities it is bound to. Entity ids are empty when they do not apply.
type Descriptor struct {
	Path          string           `json:"path"`
	Kind          domain.RouteKind `json:"kind"`
	CategoryID    string           `json:"category_id,omitempty"`
	SubcategoryID string           `json:"subcategory_id,omitempty"`
	ProductTypeID string           `json:"product_type_id,omitempty"`
	ProductID     string           `json:"product_id,omitempty"`
	Featured      []string         `json:"featured,omitempty"`
}

// Skipped records a catalog entry that could not produce a path.
type Skipped struct {
	Kind   domain.RouteKind `json:"kind"`
	ID     string           `json:"id"`
	Reason string           `json:"reason"`
}

// Collision records a descriptor dropped because an earlier one already
// owns its path.
type Collision struct {
	Path    string     `json:"path"`
	Kept    Descriptor `json:"kept"`
	Dropped Descriptor `json:"dropped"`
}

// Table is the derived path table. It is never modified after Resolve
// returns it.
type Table struct {
	descriptors []Descriptor
	index       map[string]int
	byEntity    map[entityKey]string

	Skipped    []Skipped
	Collisions []Collision
}

type entityKey struct {
	kind domain.RouteKind
	id   string
}

func newTable() *Table {
	return &Table{
		index:    make(map[string]int),
		byEntity: make(map[entityKey]string),
	}
}

// add keeps the first descriptor for a path and records later ones.
func (t *Table) add(d Descriptor) {
	if i, ok := t.index[d.Path]; ok {
		t.Collisions = append(t.Collisions, Collision{Path: d.Path, Kept: t.descriptors[i], Dropped: d})
		return
	}
	t.index[d.Path] = len(t.descriptors)
	t.descriptors = append(t.descriptors, d)
	if id := d.entityID(); id != "" {
		t.byEntity[entityKey{d.Kind, id}] = d.Path
	}
}

// entityID is the id of the catalog entity the descriptor is named after.
func (d Descriptor) entityID() string {
	switch d.Kind {
	case domain.RouteCategoryLanding:
		return d.CategoryID
	case domain.RouteSubcategory:
		return d.SubcategoryID
	case domain.RouteProductType:
		return d.ProductTypeID
	case domain.RouteProduct:
		return d.ProductID
	default:
		return ""
	}
}

func (t *Table) skip(kind domain.RouteKind, id, reason string) {
	t.Skipped = append(t.Skipped, Skipped{Kind: kind, ID: id, Reason: reason})
}

func (t *Table) Lookup(path string) (Descriptor, bool) {
	if t == nil {
		return Descriptor{}, false
	}
	i, ok := t.index[path]
	if !ok {
		return Descriptor{}, false
	}
	return t.descriptors[i], true
}

// PathOf returns the path owned by a catalog entity, if it has one.
func (t *Table) PathOf(kind domain.RouteKind, id string) (string, bool) {
	if t == nil {
		return "", false
	}
	p, ok := t.byEntity[entityKey{kind, id}]
	return p, ok
}

func (t *Table) Has(path string) bool {
	_, ok := t.Lookup(path)
	return ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.descriptors)
}

// Descriptors returns the table in generation order.
func (t *Table) Descriptors() []Descriptor {
	if t == nil {
		return nil
	}
	out := make([]Descriptor, len(t.descriptors))
	copy(out, t.descriptors)
	return out
}

func (t *Table) Paths() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.descriptors))
	for i, d := range t.descriptors {
		out[i] = d.Path
	}
	return out
}
