// Package pricing resolves what a shopper pays for a cart line given the
// product's base price and its quantity-break offers.
package pricing

import "fmt"

// Result is the outcome of pricing one cart line. All amounts are in cents.
//
// For unit offers and the base price Total == UnitPrice*Quantity. For bundle
// offers Total is authoritative and UnitPrice is the truncated average.
type Result struct {
	UnitPrice      int64  `json:"unit_price"`
	Total          int64  `json:"total"`
	Quantity       int    `json:"quantity"`
	SpecialApplied bool   `json:"special_applied"`
	Offer          *Offer `json:"offer,omitempty"`
	Bundles        int    `json:"bundles,omitempty"`
}

// Priced is anything carrying a base price and tier table.
type Priced interface {
	BasePrice() int64
	Tiers() TierTable
}

// Engine resolves tiered prices. The zero value is ready to use.
type Engine struct{}

// NewEngine returns a pricing engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Resolve prices quantity units of p.
func (e *Engine) Resolve(p Priced, quantity int) (Result, error) {
	return e.ResolvePrice(p.BasePrice(), p.Tiers(), quantity)
}

// ResolvePrice selects the offer with the largest minimum quantity not above
// quantity. Without one the base price applies. Duplicate minimums resolve to
// the cheapest total, then the lowest offer ID.
func (e *Engine) ResolvePrice(basePrice int64, tiers TierTable, quantity int) (Result, error) {
	if quantity < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	baseTotal := basePrice * int64(quantity)
	result := Result{UnitPrice: basePrice, Total: baseTotal, Quantity: quantity}

	candidates := tiers.qualifying(quantity)
	if len(candidates) == 0 {
		return result, nil
	}

	var (
		chosen  Offer
		total   int64
		bundles int
	)
	for i, o := range candidates {
		t, b := o.totalFor(basePrice, quantity)
		if i == 0 || t < total || (t == total && o.ID < chosen.ID) {
			chosen, total, bundles = o, t, b
		}
	}

	offer := chosen
	result.Offer = &offer
	result.Total = total
	result.Bundles = bundles
	if chosen.Kind == OfferKindBundle {
		result.UnitPrice = total / int64(quantity)
	} else {
		result.UnitPrice = chosen.Price
	}
	result.SpecialApplied = total != baseTotal
	return result, nil
}
