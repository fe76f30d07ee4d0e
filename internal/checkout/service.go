// Package checkout prices shopper carts with the tiered pricing engine.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/pricing"
)

// ErrUnknownProduct is returned when a line references a product that does not exist.
var ErrUnknownProduct = fmt.Errorf("checkout: unknown product: %w", httpx.ErrValidation)

// PricedLine pairs a product with its resolved price.
type PricedLine struct {
	Product catalog.Product `json:"product"`
	Result  pricing.Result  `json:"result"`
}

// Quote is a fully priced cart.
type Quote struct {
	Lines          []PricedLine `json:"lines"`
	Subtotal       int64        `json:"subtotal"`
	SpecialApplied bool         `json:"special_applied"`
}

type pricedProduct struct {
	base  int64
	tiers pricing.TierTable
}

func (p pricedProduct) BasePrice() int64        { return p.base }
func (p pricedProduct) Tiers() pricing.TierTable { return p.tiers }

// Service prices carts against the catalog store.
type Service struct {
	store   catalog.Store
	pricing *pricing.Engine
}

// NewService constructs checkout service.
func NewService(store catalog.Store, engine *pricing.Engine) *Service {
	if engine == nil {
		engine = pricing.NewEngine()
	}
	return &Service{store: store, pricing: engine}
}

// Quote prices every line in order. Any failing line fails the whole quote.
func (s *Service) Quote(ctx context.Context, lines []Line) (Quote, error) {
	quote := Quote{Lines: make([]PricedLine, 0, len(lines))}
	for _, line := range lines {
		priced, err := s.priceLine(ctx, line)
		if err != nil {
			return Quote{}, err
		}
		quote.Lines = append(quote.Lines, priced)
		quote.Subtotal += priced.Result.Total
		quote.SpecialApplied = quote.SpecialApplied || priced.Result.SpecialApplied
	}
	return quote, nil
}

func (s *Service) priceLine(ctx context.Context, line Line) (PricedLine, error) {
	product, err := s.store.GetProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return PricedLine{}, fmt.Errorf("%w: %d", ErrUnknownProduct, line.ProductID)
		}
		return PricedLine{}, fmt.Errorf("checkout: load product %d: %w", line.ProductID, err)
	}
	offers, err := s.store.GetTiers(ctx, line.ProductID)
	if err != nil {
		return PricedLine{}, fmt.Errorf("checkout: load tiers %d: %w", line.ProductID, err)
	}
	result, err := s.pricing.Resolve(pricedProduct{base: product.Price, tiers: pricing.NewTierTable(offers)}, line.Quantity)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidQuantity) {
			return PricedLine{}, fmt.Errorf("checkout: product %d: %w: %w", line.ProductID, httpx.ErrValidation, err)
		}
		return PricedLine{}, err
	}
	return PricedLine{Product: product, Result: result}, nil
}

// Reconcile drops cart lines whose products no longer exist and returns their IDs.
func (s *Service) Reconcile(ctx context.Context, cart *Cart) ([]int64, error) {
	var removed []int64
	for _, line := range cart.Lines() {
		_, err := s.store.GetProduct(ctx, line.ProductID)
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrNotFound):
			cart.Remove(line.ProductID)
			removed = append(removed, line.ProductID)
		default:
			return removed, fmt.Errorf("checkout: reconcile cart: %w", err)
		}
	}
	return removed, nil
}
