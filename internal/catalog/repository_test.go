package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/pricing"
	"github.com/odyssey-erp/storefront/migrations"
)

// fakeRows replays fixed rows through pgx.Rows.
type fakeRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.rows[r.pos-1], nil }

func (r *fakeRows) Scan(dest ...any) error {
	return scanValues(r.rows[r.pos-1], dest)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.values, dest)
}

func scanValues(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *string:
			*d = v.(string)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported target %T", dest[i])
		}
	}
	return nil
}

type fakeQuerier struct {
	rows    *fakeRows
	row     fakeRow
	queries []string
	args    [][]any
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return pgconn.CommandTag{}, nil
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return q.rows, nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.queries = append(q.queries, sql)
	q.args = append(q.args, args)
	return q.row
}

func TestMapWriteError(t *testing.T) {
	dup := mapWriteError("create category", &pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"})
	assert.ErrorIs(t, dup, ErrDuplicate)

	fk := mapWriteError("attach category", &pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, fk, ErrNotFound)

	other := errors.New("conn closed")
	wrapped := mapWriteError("create product", other)
	assert.ErrorIs(t, wrapped, other)
	assert.NotErrorIs(t, wrapped, ErrDuplicate)
	assert.Contains(t, wrapped.Error(), "create product")
}

func TestPostgresStoreScansProducts(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: &fakeRows{rows: [][]any{
		{int64(1), "Laptop 1", "laptop-1", "15 inch", int64(149999), true, created, created},
		{int64(4), "Laptop 2", "laptop-2", "", int64(99900), false, created, created},
	}}}
	store := NewPostgresStore(q)

	products, err := store.FindByCategorySlug(context.Background(), "laptops")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, Product{ID: 1, Name: "Laptop 1", Slug: "laptop-1", Description: "15 inch", Price: 149999, Featured: true, CreatedAt: created, UpdatedAt: created}, products[0])
	assert.False(t, products[1].Featured)
	assert.Equal(t, []any{"laptops"}, q.args[0])
	assert.True(t, q.rows.closed)
}

func TestPostgresStoreEmptyListIsNotNil(t *testing.T) {
	store := NewPostgresStore(&fakeQuerier{rows: &fakeRows{}})
	products, err := store.FindFeatured(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestPostgresStoreGetTiersParsesKind(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{rows: [][]any{
		{int64(1), int64(7), 3, int64(130), "bundle"},
		{int64(2), int64(7), 5, int64(40), ""},
		{int64(3), int64(7), 10, int64(35), "unit"},
	}}}
	offers, err := NewPostgresStore(q).GetTiers(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, pricing.Offer{ID: 1, ProductID: 7, MinQuantity: 3, Price: 130, Kind: pricing.OfferKindBundle}, offers[0])
	assert.Equal(t, pricing.OfferKindUnit, offers[1].Kind)
	assert.Equal(t, pricing.OfferKindUnit, offers[2].Kind)

	bad := &fakeQuerier{rows: &fakeRows{rows: [][]any{{int64(1), int64(7), 3, int64(130), "percent"}}}}
	_, err = NewPostgresStore(bad).GetTiers(context.Background(), 7)
	assert.ErrorContains(t, err, `unknown offer kind "percent"`)
}

func TestPostgresStoreRowsError(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewPostgresStore(&fakeQuerier{rows: &fakeRows{err: boom}})
	_, err := store.ListCategories(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPostgresStoreGetProductNotFound(t *testing.T) {
	store := NewPostgresStore(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := store.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreCreateOfferDefaultsKind(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{int64(11)}}}
	offer, err := NewPostgresStore(q).CreateOffer(context.Background(), pricing.Offer{ProductID: 7, MinQuantity: 5, Price: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(11), offer.ID)
	assert.Equal(t, pricing.OfferKindUnit, offer.Kind)
	assert.Equal(t, []any{int64(7), 5, int64(40), "unit"}, q.args[0])
}

var errRollback = errors.New("rollback")

// TestPostgresStoreRoundTrip needs a disposable database in STOREFRONT_TEST_PG_DSN.
func TestPostgresStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	dsn := os.Getenv("STOREFRONT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn, db.Options{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = db.Migrate(ctx, pool, migrations.Files)
	require.NoError(t, err)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		store := NewPostgresStore(tx)
		cat, err := store.CreateCategory(ctx, Category{Name: "Bundles " + suffix, Slug: "bundles-" + suffix})
		require.NoError(t, err)
		product, err := store.CreateProduct(ctx, Product{Name: "Product A", Slug: "product-a-" + suffix, Price: 50, Featured: true})
		require.NoError(t, err)
		require.NoError(t, store.AttachCategory(ctx, product.ID, cat.ID))
		_, err = store.CreateOffer(ctx, pricing.Offer{ProductID: product.ID, MinQuantity: 3, Price: 130, Kind: pricing.OfferKindBundle})
		require.NoError(t, err)

		listed, err := store.FindByCategorySlug(ctx, cat.Slug)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, product.ID, listed[0].ID)

		offers, err := store.GetTiers(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, pricing.OfferKindBundle, offers[0].Kind)

		// A violation aborts the transaction, so it runs last.
		_, err = store.CreateCategory(ctx, Category{Name: "Again", Slug: cat.Slug})
		assert.ErrorIs(t, err, ErrDuplicate)
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
}
