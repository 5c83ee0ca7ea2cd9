package tasks

import (
	"context"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/ingest"
)

// TaskSchedulerInterface is what the HTTP layer and main use to drive background work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Stats() Stats
}

type Ingester interface {
	Run(ctx context.Context) (ingest.RunSummary, error)
}

// FeedInvalidator drops rendered public feed pages after the item set changes.
type FeedInvalidator interface {
	InvalidateFeed(ctx context.Context) error
}

type ImageResolver interface {
	Resolve(ctx context.Context, articleURL string) string
}

type ItemUpdater interface {
	GetItem(ctx context.Context, id int64) (*database.Item, error)
	UpdateItem(ctx context.Context, id int64, update database.ItemUpdate) error
}
