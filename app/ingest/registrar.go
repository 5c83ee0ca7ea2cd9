package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

var ErrInvalidLink = errors.New("invalid stream link")

// Registrar adds streams, capturing their title and description from the feed itself.
type Registrar struct {
	streams StreamRegistry
	fetcher FeedFetcher
	parser  FeedParser
}

func NewRegistrar(streams StreamRegistry, fetcher FeedFetcher, parser FeedParser) *Registrar {
	return &Registrar{
		streams: streams,
		fetcher: fetcher,
		parser:  parser,
	}
}

// Register fetches link and stores it as a stream. An already registered link
// yields database.ErrConflict without any network call.
func (r *Registrar) Register(ctx context.Context, link string) (*database.Stream, error) {
	if err := feed.ValidateStreamLink(link); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	if _, err := r.streams.GetStreamByLink(ctx, link); err == nil {
		return nil, database.ErrConflict
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	data, err := r.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}

	channel, err := r.parser.Channel(data)
	if err != nil {
		return nil, err
	}

	stream, err := r.streams.CreateStream(ctx, link, channel.Title, channel.Description)
	if err != nil {
		return nil, err
	}

	slog.Info("Stream registered", "id", stream.ID, "link", stream.Link, "title", stream.Title)
	return stream, nil
}

// Seed registers the streams and upserts the filters listed in file.
// Failures are logged per entry and never stop the remaining entries.
func (r *Registrar) Seed(ctx context.Context, file *feed.StreamFile, filters FilterUpserter) {
	if file == nil {
		return
	}

	for _, entry := range file.Streams {
		_, err := r.Register(ctx, entry.Link)
		switch {
		case err == nil:
		case errors.Is(err, database.ErrConflict):
			slog.Debug("Stream already registered", "link", entry.Link)
		default:
			slog.Warn("Failed to register stream", "link", entry.Link, "error", err)
		}
	}

	for _, entry := range file.Filters {
		input := database.FilterRuleInput{Pattern: entry.Filter}
		if entry.Title != "" {
			input.Title = &entry.Title
		}
		if entry.Description != "" {
			input.Description = &entry.Description
		}

		_, err := filters.UpsertFilter(ctx, input)
		switch {
		case err == nil:
			slog.Debug("Filter seeded", "filter", entry.Filter)
		case errors.Is(err, database.ErrConflict):
			slog.Debug("Filter already present", "filter", entry.Filter)
		default:
			slog.Warn("Failed to seed filter", "filter", entry.Filter, "error", err)
		}
	}
}
