package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/platform/httpx"
	"github.com/odyssey-erp/storefront/internal/pricing"
)

func testStore() *catalog.Snapshot {
	return catalog.NewSnapshot(
		[]catalog.Product{
			{ID: 1, Name: "Product A", Slug: "product-a", Price: 50, Featured: true},
			{ID: 2, Name: "Product B", Slug: "product-b", Price: 30, Featured: true},
			{ID: 3, Name: "Product C", Slug: "product-c", Price: 20},
		},
		nil, nil,
		[]pricing.Offer{
			{ID: 1, ProductID: 1, MinQuantity: 3, Price: 130, Kind: pricing.OfferKindBundle},
			{ID: 2, ProductID: 2, MinQuantity: 2, Price: 45, Kind: pricing.OfferKindBundle},
		},
	)
}

type failingStore struct {
	*catalog.Snapshot
}

func (failingStore) GetProduct(context.Context, int64) (catalog.Product, error) {
	return catalog.Product{}, errors.New("connection reset")
}

func TestQuoteAppliesTiers(t *testing.T) {
	svc := NewService(testStore(), nil)

	quote, err := svc.Quote(context.Background(), []Line{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, quote.Lines, 3)

	assert.Equal(t, int64(130), quote.Lines[0].Result.Total)
	assert.True(t, quote.Lines[0].Result.SpecialApplied)
	assert.Equal(t, "Product A", quote.Lines[0].Product.Name)

	assert.Equal(t, int64(30), quote.Lines[1].Result.Total)
	assert.False(t, quote.Lines[1].Result.SpecialApplied)

	assert.Equal(t, int64(40), quote.Lines[2].Result.Total)
	assert.Equal(t, int64(200), quote.Subtotal)
	assert.True(t, quote.SpecialApplied)
}

func TestQuoteBundleWithRemainder(t *testing.T) {
	svc := NewService(testStore(), pricing.NewEngine())

	quote, err := svc.Quote(context.Background(), []Line{{ProductID: 2, Quantity: 5}})
	require.NoError(t, err)
	// two bundles of 2 at 45 plus one unit at 30
	assert.Equal(t, int64(120), quote.Subtotal)
	assert.Equal(t, 2, quote.Lines[0].Result.Bundles)
}

func TestQuoteEmptyCart(t *testing.T) {
	svc := NewService(testStore(), nil)

	quote, err := svc.Quote(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, quote.Lines)
	assert.Zero(t, quote.Subtotal)
	assert.False(t, quote.SpecialApplied)
}

func TestQuoteUnknownProduct(t *testing.T) {
	svc := NewService(testStore(), nil)

	_, err := svc.Quote(context.Background(), []Line{{ProductID: 99, Quantity: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestQuoteInvalidQuantity(t *testing.T) {
	svc := NewService(testStore(), nil)

	_, err := svc.Quote(context.Background(), []Line{{ProductID: 1, Quantity: 0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestQuoteStoreFailure(t *testing.T) {
	svc := NewService(failingStore{testStore()}, nil)

	_, err := svc.Quote(context.Background(), []Line{{ProductID: 1, Quantity: 1}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, httpx.ErrValidation)
}

func TestReconcileDropsMissingProducts(t *testing.T) {
	svc := NewService(testStore(), nil)
	cart := &Cart{}
	cart.Add(1, 1)
	cart.Add(42, 2)

	removed, err := svc.Reconcile(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, removed)
	assert.Equal(t, []Line{{ProductID: 1, Quantity: 1}}, cart.Lines())
}
