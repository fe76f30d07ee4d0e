package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*Snapshot
	featuredCalls atomic.Int32
}

func (s *countingStore) FindFeatured(ctx context.Context) ([]Product, error) {
	s.featuredCalls.Add(1)
	return s.Snapshot.FindFeatured(ctx)
}

// gatedStore blocks featured lookups until release closes or ctx ends.
type gatedStore struct {
	*Snapshot
	entered     chan struct{}
	enteredOnce sync.Once
	release     chan struct{}
}

func (s *gatedStore) FindFeatured(ctx context.Context) ([]Product, error) {
	s.enteredOnce.Do(func() { close(s.entered) })
	select {
	case <-s.release:
		return s.Snapshot.FindFeatured(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newCachedEngine(t *testing.T, store Store) (*CachedEngine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedEngine(NewEngine(store), client, time.Minute), mr
}

func TestCachedEngineServesRepeatedListingsFromRedis(t *testing.T) {
	store := &countingStore{Snapshot: NewSnapshot([]Product{
		{ID: 1, Name: "Laptop 1", Price: 149999, Featured: true},
	}, nil, nil, nil)}
	cached, _ := newCachedEngine(t, store)
	ctx := context.Background()
	filter := ListFilter{FeaturedOnly: true, Page: 1}

	first, err := cached.ListProducts(ctx, filter)
	require.NoError(t, err)
	second, err := cached.ListProducts(ctx, filter)
	require.NoError(t, err)

	assert.Equal(t, int32(1), store.featuredCalls.Load())
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, "Laptop 1", second.Products[0].Name)

	require.NoError(t, cached.Bump(ctx))
	_, err = cached.ListProducts(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.featuredCalls.Load())
}

func TestCachedEngineKeysOnFilter(t *testing.T) {
	store := &countingStore{Snapshot: NewSnapshot([]Product{
		{ID: 1, Name: "A", Price: 300, Featured: true},
		{ID: 2, Name: "B", Price: 100, Featured: true},
	}, nil, nil, nil)}
	cached, _ := newCachedEngine(t, store)
	ctx := context.Background()

	low, err := cached.ListProducts(ctx, ListFilter{FeaturedOnly: true, Sort: SortLowHigh})
	require.NoError(t, err)
	high, err := cached.ListProducts(ctx, ListFilter{FeaturedOnly: true, Sort: SortHighLow})
	require.NoError(t, err)

	assert.Equal(t, "B", low.Products[0].Name)
	assert.Equal(t, "A", high.Products[0].Name)
	assert.Equal(t, int32(2), store.featuredCalls.Load())
}

func TestCachedEngineFallsBackWhenRedisIsDown(t *testing.T) {
	store := &countingStore{Snapshot: NewSnapshot([]Product{{ID: 1, Name: "A", Featured: true}}, nil, nil, nil)}
	cached, mr := newCachedEngine(t, store)
	mr.Close()

	res, err := cached.ListProducts(context.Background(), ListFilter{FeaturedOnly: true})
	require.NoError(t, err)
	assert.Len(t, res.Products, 1)
}

func TestCachedEngineWithoutClient(t *testing.T) {
	cached := NewCachedEngine(NewEngine(NewSnapshot(nil, nil, nil, nil)), nil, time.Minute)
	res, err := cached.ListProducts(context.Background(), ListFilter{FeaturedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.NoError(t, cached.Bump(context.Background()))

	ver, err := cached.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), ver)
}

func TestCachedEngineVersionInitialises(t *testing.T) {
	cached, _ := newCachedEngine(t, NewSnapshot(nil, nil, nil, nil))
	ctx := context.Background()

	ver, err := cached.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	require.NoError(t, cached.Bump(ctx))
	ver, err = cached.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)
}

type recordingObserver struct{ results []string }

func (r *recordingObserver) ObserveCache(result string) { r.results = append(r.results, result) }

func TestCachedEngineReportsLookups(t *testing.T) {
	store := &countingStore{Snapshot: NewSnapshot([]Product{{ID: 1, Name: "A", Featured: true}}, nil, nil, nil)}
	cached, mr := newCachedEngine(t, store)
	obs := &recordingObserver{}
	cached.WithObserver(obs)
	ctx := context.Background()

	_, err := cached.ListProducts(ctx, ListFilter{FeaturedOnly: true})
	require.NoError(t, err)
	_, err = cached.ListProducts(ctx, ListFilter{FeaturedOnly: true})
	require.NoError(t, err)
	mr.Close()
	_, err = cached.ListProducts(ctx, ListFilter{FeaturedOnly: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"miss", "hit", "error"}, obs.results)
}

func TestCachedEngineSharedLoadSurvivesLeaderCancel(t *testing.T) {
	store := &gatedStore{
		Snapshot: NewSnapshot([]Product{{ID: 1, Name: "Laptop 1", Price: 149999, Featured: true}}, nil, nil, nil),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	cached, _ := newCachedEngine(t, store)
	filter := ListFilter{FeaturedOnly: true, Page: 1}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cached.ListProducts(leaderCtx, filter)
		leaderErr <- err
	}()
	<-store.entered

	type outcome struct {
		res ListResult
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		res, err := cached.ListProducts(context.Background(), filter)
		follower <- outcome{res, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()
	require.ErrorIs(t, <-leaderErr, context.Canceled)
	close(store.release)

	select {
	case out := <-follower:
		require.NoError(t, out.err)
		require.Len(t, out.res.Products, 1)
		assert.Equal(t, "Laptop 1", out.res.Products[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("follower never received a listing")
	}
}

func TestCachedEngineBumpReachesOtherInstances(t *testing.T) {
	store := &countingStore{Snapshot: NewSnapshot([]Product{{ID: 1, Name: "A", Featured: true}}, nil, nil, nil)}
	first, mr := newCachedEngine(t, store)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	second := NewCachedEngine(NewEngine(store), client, time.Minute)
	ctx := context.Background()
	filter := ListFilter{FeaturedOnly: true, Page: 1}

	_, err := first.ListProducts(ctx, filter)
	require.NoError(t, err)
	_, err = second.ListProducts(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.featuredCalls.Load())

	require.NoError(t, first.Bump(ctx))
	_, err = second.ListProducts(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.featuredCalls.Load())
}
