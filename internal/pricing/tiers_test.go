package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTierTableOrdersAndDefaultsKind(t *testing.T) {
	input := []Offer{
		{ID: 3, MinQuantity: 10, Price: 30},
		{ID: 1, MinQuantity: 2, Price: 45, Kind: OfferKindBundle},
		{ID: 2, MinQuantity: 5, Price: 40},
	}
	table := NewTierTable(input)

	offers := table.Offers()
	require.Len(t, offers, 3)
	assert.Equal(t, []int{2, 5, 10}, []int{offers[0].MinQuantity, offers[1].MinQuantity, offers[2].MinQuantity})
	assert.Equal(t, OfferKindUnit, offers[1].Kind)
	assert.Equal(t, OfferKindBundle, offers[0].Kind)

	// The caller's slice is untouched.
	assert.Equal(t, int64(3), input[0].ID)
	assert.Equal(t, OfferKind(""), input[0].Kind)
}

func TestTierTableValidate(t *testing.T) {
	clean := NewTierTable([]Offer{
		{ID: 1, MinQuantity: 2, Price: 45},
		{ID: 2, MinQuantity: 3, Price: 130, Kind: OfferKindBundle},
	})
	assert.NoError(t, clean.Validate(50))

	broken := NewTierTable([]Offer{
		{ID: 1, MinQuantity: 0, Price: 10},
		{ID: 2, MinQuantity: 2, Price: 60},
		{ID: 3, MinQuantity: 2, Price: 40},
		{ID: 4, MinQuantity: 3, Price: 200, Kind: OfferKindBundle},
		{ID: 5, MinQuantity: 4, Price: -1},
	})
	err := broken.Validate(50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTier))
	msg := err.Error()
	assert.Contains(t, msg, "offer 1 minimum quantity 0")
	assert.Contains(t, msg, "offer 2 unit price above base price")
	assert.Contains(t, msg, "offers 2 and 3 share minimum quantity 2")
	assert.Contains(t, msg, "bundle offer 4")
	assert.Contains(t, msg, "offer 5 has negative price")
}

func TestParseOfferKind(t *testing.T) {
	kind, err := ParseOfferKind("")
	require.NoError(t, err)
	assert.Equal(t, OfferKindUnit, kind)

	kind, err = ParseOfferKind("bundle")
	require.NoError(t, err)
	assert.Equal(t, OfferKindBundle, kind)

	_, err = ParseOfferKind("percent")
	assert.Error(t, err)
}
