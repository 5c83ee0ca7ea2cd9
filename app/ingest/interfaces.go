package ingest

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type FeedParser interface {
	Run(data []byte) ([]feed.CandidateItem, error)
	Channel(data []byte) (*feed.Channel, error)
}

type PageInspector interface {
	Inspect(ctx context.Context, articleURL string) feed.PageInfo
}

type StreamLister interface {
	ListStreams(ctx context.Context) ([]database.Stream, error)
}

type FilterLister interface {
	ListFilters(ctx context.Context) ([]database.FilterRule, error)
}

type ItemStore interface {
	ExistsByLink(ctx context.Context, link string) (bool, error)
	InsertItem(ctx context.Context, item database.Item) (int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type StreamRegistry interface {
	GetStreamByLink(ctx context.Context, link string) (*database.Stream, error)
	CreateStream(ctx context.Context, link, title, description string) (*database.Stream, error)
}

type FilterUpserter interface {
	UpsertFilter(ctx context.Context, input database.FilterRuleInput) (*database.FilterRule, error)
}
