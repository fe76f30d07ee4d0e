package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/storefront/internal/catalog"
	jobmetrics "github.com/odyssey-erp/storefront/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ListingCache is the cached listing engine the refresh job drives.
type ListingCache interface {
	catalog.Lister
	Bump(ctx context.Context) error
}

// CatalogRefreshJob invalidates the listing cache and precomputes the pages
// shoppers hit first: featured pages and page one of every category.
type CatalogRefreshJob struct {
	Cache         ListingCache
	Store         catalog.Store
	Logger        *slog.Logger
	Metrics       *jobmetrics.Metrics
	FeaturedPages int
}

// NewCatalogRefreshJob wires dependencies for the refresh handler.
func NewCatalogRefreshJob(cache ListingCache, store catalog.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogRefreshJob {
	return &CatalogRefreshJob{Cache: cache, Store: store, Logger: logger, Metrics: metrics, FeaturedPages: 3}
}

// Handle processes catalog refresh tasks.
func (j *CatalogRefreshJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Cache == nil || j.Store == nil {
		return errors.New("catalog refresh: handler not configured")
	}
	var payload CatalogRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskCatalogRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	if payload.Bump {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Error("bump catalog version", slog.Any("error", err))
			return err
		}
	}

	warmed, err := j.warm(ctx)
	j.metrics().AddWarmedPages(warmed)
	if err != nil {
		logger.Error("warm listings", slog.Any("error", err), slog.Int("pages", warmed))
		return err
	}

	logger.Info("catalog refreshed", slog.Int("pages", warmed), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *CatalogRefreshJob) warm(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	warmed := 0
	pages := max(j.FeaturedPages, 1)
	for page := 1; page <= pages; page++ {
		res, err := j.Cache.ListProducts(ctx, catalog.ListFilter{FeaturedOnly: true, Page: page})
		if err != nil {
			return warmed, err
		}
		warmed++
		if page >= res.TotalPages {
			break
		}
	}

	categories, err := j.Store.ListCategories(ctx)
	if err != nil {
		return warmed, err
	}
	for _, c := range categories {
		if _, err := j.Cache.ListProducts(ctx, catalog.ListFilter{Category: c.Slug, Page: 1}); err != nil {
			return warmed, err
		}
		warmed++
	}
	return warmed, nil
}

func (j *CatalogRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogRefresh))
	}
	return slog.Default().With(slog.String("job", TaskCatalogRefresh))
}

func (j *CatalogRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
