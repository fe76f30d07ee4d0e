package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogRefresh invalidates and re-warms the listing cache.
	TaskCatalogRefresh = "catalog:refresh"
	// refreshUniqueWindow collapses bursts of admin writes into one refresh.
	refreshUniqueWindow = 30 * time.Second
)

// CatalogRefreshPayload describes one refresh run.
type CatalogRefreshPayload struct {
	// Reason is logged only.
	Reason string `json:"reason"`
	// Bump invalidates cached listings before warming.
	Bump bool `json:"bump"`
}

// NewCatalogRefreshTask constructs an Asynq task.
func NewCatalogRefreshTask(payload CatalogRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogRefresh, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
