package pricing

import (
	"errors"
	"fmt"
	"sort"
)

// TierTable is the ordered set of offers for a single product. It is read-only
// once built and safe to share between goroutines.
type TierTable struct {
	offers []Offer
}

// NewTierTable copies offers and orders them by MinQuantity, then ID.
func NewTierTable(offers []Offer) TierTable {
	sorted := make([]Offer, len(offers))
	copy(sorted, offers)
	for i := range sorted {
		if sorted[i].Kind == "" {
			sorted[i].Kind = OfferKindUnit
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MinQuantity != sorted[j].MinQuantity {
			return sorted[i].MinQuantity < sorted[j].MinQuantity
		}
		return sorted[i].ID < sorted[j].ID
	})
	return TierTable{offers: sorted}
}

// Offers returns a copy of the ordered offers.
func (t TierTable) Offers() []Offer {
	out := make([]Offer, len(t.offers))
	copy(out, t.offers)
	return out
}

// Len reports the number of offers in the table.
func (t TierTable) Len() int {
	return len(t.offers)
}

// qualifying returns every offer sharing the largest MinQuantity that is still
// <= quantity. More than one entry only happens with duplicate minimums.
func (t TierTable) qualifying(quantity int) []Offer {
	idx := sort.Search(len(t.offers), func(i int) bool {
		return t.offers[i].MinQuantity > quantity
	})
	if idx == 0 {
		return nil
	}
	best := t.offers[idx-1].MinQuantity
	start := idx - 1
	for start > 0 && t.offers[start-1].MinQuantity == best {
		start--
	}
	return t.offers[start:idx]
}

// Validate reports data-integrity violations against the product's base price.
// The pricing engine assumes clean tables and never calls it.
func (t TierTable) Validate(basePrice int64) error {
	var errs []error
	seen := make(map[int]int64, len(t.offers))
	for _, o := range t.offers {
		if o.MinQuantity < 1 {
			errs = append(errs, fmt.Errorf("%w: offer %d minimum quantity %d", ErrInvalidTier, o.ID, o.MinQuantity))
			continue
		}
		if o.Price < 0 {
			errs = append(errs, fmt.Errorf("%w: offer %d has negative price", ErrInvalidTier, o.ID))
		}
		if prev, dup := seen[o.MinQuantity]; dup {
			errs = append(errs, fmt.Errorf("%w: offers %d and %d share minimum quantity %d", ErrInvalidTier, prev, o.ID, o.MinQuantity))
		}
		seen[o.MinQuantity] = o.ID
		switch o.Kind {
		case OfferKindBundle:
			if o.Price > basePrice*int64(o.MinQuantity) {
				errs = append(errs, fmt.Errorf("%w: bundle offer %d costs more than %d units at base price", ErrInvalidTier, o.ID, o.MinQuantity))
			}
		default:
			if o.Price > basePrice {
				errs = append(errs, fmt.Errorf("%w: offer %d unit price above base price", ErrInvalidTier, o.ID))
			}
		}
	}
	return errors.Join(errs...)
}
