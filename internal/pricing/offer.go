package pricing

import "fmt"

// OfferKind tells how an offer's price is applied to a cart line.
type OfferKind string

const (
	// OfferKindUnit prices every unit at Offer.Price once MinQuantity is reached.
	OfferKindUnit OfferKind = "unit"
	// OfferKindBundle prices each full bundle of MinQuantity units at Offer.Price.
	OfferKindBundle OfferKind = "bundle"
)

// ParseOfferKind maps a stored value to an OfferKind. Empty input defaults to unit pricing.
func ParseOfferKind(raw string) (OfferKind, error) {
	switch OfferKind(raw) {
	case "", OfferKindUnit:
		return OfferKindUnit, nil
	case OfferKindBundle:
		return OfferKindBundle, nil
	default:
		return "", fmt.Errorf("pricing: unknown offer kind %q", raw)
	}
}

// Offer is a quantity break attached to exactly one product. Prices are in cents.
type Offer struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	MinQuantity int       `json:"min_quantity"`
	Price       int64     `json:"price"`
	Kind        OfferKind `json:"kind"`
}

// totalFor returns what quantity units cost under the offer, pricing any units
// outside a full bundle at basePrice.
func (o Offer) totalFor(basePrice int64, quantity int) (total int64, bundles int) {
	if o.Kind == OfferKindBundle && o.MinQuantity > 0 {
		bundles = quantity / o.MinQuantity
		remainder := quantity % o.MinQuantity
		return int64(bundles)*o.Price + int64(remainder)*basePrice, bundles
	}
	return o.Price * int64(quantity), 0
}
