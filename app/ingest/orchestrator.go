package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

type Orchestrator struct {
	streams     StreamLister
	filters     FilterLister
	items       ItemStore
	fetcher     FeedFetcher
	parser      FeedParser
	gate        *Gate
	retention   time.Duration
	concurrency int
	now         func() time.Time
}

func NewOrchestrator(
	streams StreamLister,
	filters FilterLister,
	items ItemStore,
	fetcher FeedFetcher,
	parser FeedParser,
	inspector PageInspector,
	retention time.Duration,
	concurrency int,
) *Orchestrator {
	return &Orchestrator{
		streams:     streams,
		filters:     filters,
		items:       items,
		fetcher:     fetcher,
		parser:      parser,
		gate:        NewGate(items, inspector),
		retention:   retention,
		concurrency: max(concurrency, 1),
		now:         time.Now,
	}
}

// Run performs one ingestion pass over every registered stream and always
// returns a summary. The error is non-nil only when streams or filter rules
// could not be loaded, or when ctx was cancelled before all streams were seen.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	t := newTally(o.now().UTC())

	o.purge(ctx, t)

	streams, err := o.streams.ListStreams(ctx)
	if err != nil {
		return t.finish(o.now()), err
	}

	rules, err := o.filters.ListFilters(ctx)
	if err != nil {
		return t.finish(o.now()), err
	}

	engine, compileErrs := feed.NewFilterEngine(rules)
	for _, compileErr := range compileErrs {
		slog.Warn("Filter rule is inert", "error", compileErr)
	}

	for _, stream := range streams {
		if err := ctx.Err(); err != nil {
			summary := t.finish(o.now())
			slog.Warn("Ingestion run cancelled", "sources_processed", summary.SourcesProcessed)
			return summary, err
		}

		o.processStream(ctx, stream, engine, t)
	}

	summary := t.finish(o.now())
	slog.Info("Ingestion run completed",
		"sources", summary.SourcesProcessed,
		"accepted", summary.ItemsAccepted,
		"filtered", summary.ItemsFiltered,
		"duplicates", summary.ItemsSkippedDuplicate,
		"failed", summary.ItemsFailed,
		"purged", summary.ItemsPurged,
		"source_errors", len(summary.SourceErrors),
		"duration", summary.Duration)

	return summary, nil
}

func (o *Orchestrator) purge(ctx context.Context, t *tally) {
	cutoff := o.now().Add(-o.retention)

	purged, err := o.items.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention purge failed", "error", err)
		t.update(func(s *RunSummary) { s.PurgeError = err.Error() })
		return
	}

	if purged > 0 {
		slog.Info("Purged expired items", "count", purged, "cutoff", cutoff.UTC().Format(database.TimeLayout))
	}
	t.update(func(s *RunSummary) { s.ItemsPurged = purged })
}

func (o *Orchestrator) processStream(ctx context.Context, stream database.Stream, engine *feed.FilterEngine, t *tally) {
	defer t.update(func(s *RunSummary) { s.SourcesProcessed++ })

	data, err := o.fetcher.Fetch(ctx, stream.Link)
	if err != nil {
		slog.Warn("Source fetch failed", "source", stream.Link, "error", err)
		t.sourceError(stream.Link, err)
		return
	}

	candidates, err := o.parser.Run(data)
	if err != nil {
		slog.Warn("Source parse failed", "source", stream.Link, "error", err)
		t.sourceError(stream.Link, err)
		return
	}

	counts := &tally{}

	// Items already started are allowed to finish after cancellation.
	workCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		if candidate.Link == "" {
			slog.Debug("Item without link skipped", "source", stream.Link, "title", candidate.Title)
			counts.update(func(s *RunSummary) { s.ItemsFiltered++ })
			continue
		}

		if pattern, rejected := engine.Match(candidate.Link); rejected {
			slog.Debug("Item filtered", "link", candidate.Link, "rule", pattern)
			counts.update(func(s *RunSummary) { s.ItemsFiltered++ })
			continue
		}

		g.Go(func() error {
			outcome, err := o.gate.IngestIfNew(workCtx, candidate)
			switch {
			case err != nil:
				slog.Warn("Item ingestion failed", "link", candidate.Link, "error", err)
				counts.update(func(s *RunSummary) { s.ItemsFailed++ })
				t.sourceError(stream.Link, err)
			case outcome == Accepted:
				slog.Debug("Item accepted", "link", candidate.Link)
				counts.update(func(s *RunSummary) { s.ItemsAccepted++ })
			default:
				counts.update(func(s *RunSummary) { s.ItemsSkippedDuplicate++ })
			}
			return nil
		})
	}

	_ = g.Wait()

	c := counts.summary
	t.update(func(s *RunSummary) {
		s.ItemsAccepted += c.ItemsAccepted
		s.ItemsFiltered += c.ItemsFiltered
		s.ItemsSkippedDuplicate += c.ItemsSkippedDuplicate
		s.ItemsFailed += c.ItemsFailed
	})

	slog.Info("Source processed",
		"source", stream.Link,
		"items", len(candidates),
		"accepted", c.ItemsAccepted,
		"filtered", c.ItemsFiltered,
		"duplicates", c.ItemsSkippedDuplicate,
		"failed", c.ItemsFailed)
}
