// Package catalog lists storefront products and owns the catalog store contract.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// PageSize is the fixed number of products per listing page.
const PageSize = 9

// Sort selects the listing order.
type Sort string

const (
	SortDefault Sort = ""
	SortLowHigh Sort = "low_high"
	SortHighLow Sort = "high_low"
)

// ParseSort maps a query value to a Sort. Unknown values fall back to SortDefault.
func ParseSort(raw string) Sort {
	switch Sort(raw) {
	case SortLowHigh:
		return SortLowHigh
	case SortHighLow:
		return SortHighLow
	default:
		return SortDefault
	}
}

// ListFilter describes one listing request.
type ListFilter struct {
	FeaturedOnly bool   `json:"featured_only"`
	Category     string `json:"category,omitempty"`
	Sort         Sort   `json:"sort,omitempty"`
	Page         int    `json:"page"`
}

// ListResult is one page of products plus totals for pagination links.
type ListResult struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Engine runs listing queries against a Store.
type Engine struct {
	store Store
}

// NewEngine constructs an Engine reading from store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// ListProducts filters, orders and paginates products. Empty results, unknown
// category slugs and pages past the end are not errors.
func (e *Engine) ListProducts(ctx context.Context, filter ListFilter) (ListResult, error) {
	filter = normalizeFilter(filter)

	products, err := e.candidates(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	sortProducts(products, filter.Sort)

	pager := shared.NewPagination(filter.Page, PageSize, len(products))
	result := ListResult{
		Products:   []Product{},
		Total:      pager.Total,
		Page:       pager.Page,
		PageSize:   pager.PerPage,
		TotalPages: pager.TotalPages,
	}
	if start, end := pager.Offset(), pager.End(); start < end {
		result.Products = append(result.Products, products[start:end]...)
	}
	return result, nil
}

func normalizeFilter(f ListFilter) ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	f.Sort = ParseSort(string(f.Sort))
	return f
}

func (e *Engine) candidates(ctx context.Context, filter ListFilter) ([]Product, error) {
	if filter.Category == "" {
		var (
			products []Product
			err      error
		)
		if filter.FeaturedOnly {
			products, err = e.store.FindFeatured(ctx)
		} else {
			products, err = e.store.FindAll(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: load products: %w", err)
		}
		return products, nil
	}

	products, err := e.store.FindByCategorySlug(ctx, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("catalog: load category %q: %w", filter.Category, err)
	}
	if !filter.FeaturedOnly {
		return products, nil
	}
	featured := products[:0:0]
	for _, p := range products {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured, nil
}

// sortProducts orders in place. Price ties and the default order use ascending ID.
func sortProducts(products []Product, order Sort) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch order {
		case SortLowHigh:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortHighLow:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		}
		return a.ID < b.ID
	})
}
