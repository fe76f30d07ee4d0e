package catalog

import (
	"context"
	"sort"

	"github.com/odyssey-erp/storefront/internal/pricing"
)

// Snapshot is an immutable in-memory Store. Build it once with NewSnapshot and
// share it freely; no method mutates it.
type Snapshot struct {
	products   []Product
	byID       map[int64]int
	categories []Category
	// slug -> product IDs attached to that category
	bySlug map[string][]int64
	tiers  map[int64][]pricing.Offer
}

var _ Store = (*Snapshot)(nil)

// NewSnapshot copies the given records into an immutable store. Attachments
// referring to unknown products or categories are ignored.
func NewSnapshot(products []Product, categories []Category, attachments []Attachment, offers []pricing.Offer) *Snapshot {
	s := &Snapshot{
		products:   make([]Product, len(products)),
		byID:       make(map[int64]int, len(products)),
		categories: make([]Category, len(categories)),
		bySlug:     make(map[string][]int64, len(categories)),
		tiers:      make(map[int64][]pricing.Offer),
	}
	copy(s.products, products)
	sort.SliceStable(s.products, func(i, j int) bool { return s.products[i].ID < s.products[j].ID })
	for i, p := range s.products {
		s.byID[p.ID] = i
	}

	copy(s.categories, categories)
	sort.SliceStable(s.categories, func(i, j int) bool { return s.categories[i].Name < s.categories[j].Name })
	slugByID := make(map[int64]string, len(categories))
	for _, c := range categories {
		slugByID[c.ID] = c.Slug
	}

	seen := make(map[Attachment]struct{}, len(attachments))
	for _, a := range attachments {
		slug, ok := slugByID[a.CategoryID]
		if !ok {
			continue
		}
		if _, ok := s.byID[a.ProductID]; !ok {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		s.bySlug[slug] = append(s.bySlug[slug], a.ProductID)
	}

	for _, o := range offers {
		s.tiers[o.ProductID] = append(s.tiers[o.ProductID], o)
	}
	return s
}

// FindAll returns every product.
func (s *Snapshot) FindAll(ctx context.Context) ([]Product, error) {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// FindFeatured returns featured products.
func (s *Snapshot) FindFeatured(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindByCategorySlug returns products attached to the category with the exact slug.
func (s *Snapshot) FindByCategorySlug(ctx context.Context, slug string) ([]Product, error) {
	ids := s.bySlug[slug]
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.products[s.byID[id]])
	}
	return out, nil
}

// GetProduct returns a product by ID.
func (s *Snapshot) GetProduct(ctx context.Context, id int64) (Product, error) {
	idx, ok := s.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return s.products[idx], nil
}

// GetTiers returns the offers of a product.
func (s *Snapshot) GetTiers(ctx context.Context, productID int64) ([]pricing.Offer, error) {
	offers := s.tiers[productID]
	out := make([]pricing.Offer, len(offers))
	copy(out, offers)
	return out, nil
}

// ListCategories returns categories ordered by name.
func (s *Snapshot) ListCategories(ctx context.Context) ([]Category, error) {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}
