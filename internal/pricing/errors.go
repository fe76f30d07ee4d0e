package pricing

import "errors"

var (
	// ErrInvalidQuantity is returned when a requested quantity is below one.
	ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")
	// ErrInvalidTier marks data-integrity problems found by TierTable.Validate.
	ErrInvalidTier = errors.New("pricing: invalid tier")
)
