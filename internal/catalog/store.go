package catalog

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/pricing"
)

var (
	// ErrNotFound indicates the requested catalog record does not exist.
	ErrNotFound = fmt.Errorf("catalog: %w", httpx.ErrNotFound)
	// ErrDuplicate indicates a unique constraint (slug, offer minimum) was violated.
	ErrDuplicate = fmt.Errorf("catalog: %w", httpx.ErrDuplicate)
)

// Store is the read side of the catalog consumed by the query and pricing engines.
// Implementations must return consistent snapshots per call.
type Store interface {
	FindAll(ctx context.Context) ([]Product, error)
	FindFeatured(ctx context.Context) ([]Product, error)
	FindByCategorySlug(ctx context.Context, slug string) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetTiers(ctx context.Context, productID int64) ([]pricing.Offer, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// Writer is the catalog management side, only offered by persistent stores.
type Writer interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	AttachCategory(ctx context.Context, productID, categoryID int64) error
	CreateOffer(ctx context.Context, o pricing.Offer) (pricing.Offer, error)
}
