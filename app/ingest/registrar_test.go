package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

func newTestRegistrar() (*Registrar, *fakeStreams, *fakeFetcher) {
	streams := &fakeStreams{}
	fetcher := &fakeFetcher{
		bodies: map[string]string{"https://a.example.com/rss": "channel-a"},
		errs:   map[string]error{"https://down.example.com/rss": &feed.TransportError{URL: "https://down.example.com/rss", StatusCode: 404}},
	}
	parser := &fakeParser{channels: map[string]*feed.Channel{
		"channel-a": {Title: "A News", Description: "All about A"},
	}}
	return NewRegistrar(streams, fetcher, parser), streams, fetcher
}

func TestRegistrar_Register(t *testing.T) {
	registrar, streams, _ := newTestRegistrar()

	stream, err := registrar.Register(context.Background(), "https://a.example.com/rss")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stream.Title != "A News" || stream.Description != "All about A" {
		t.Errorf("Expected channel metadata, got %+v", stream)
	}
	if len(streams.created) != 1 {
		t.Errorf("Expected 1 stream created, got %d", len(streams.created))
	}
}

func TestRegistrar_Errors(t *testing.T) {
	registrar, streams, fetcher := newTestRegistrar()
	streams.streams = []database.Stream{{ID: 1, Link: "https://existing.example.com/rss"}}

	if _, err := registrar.Register(context.Background(), "ftp://a.example.com/rss"); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("Expected ErrInvalidLink, got %v", err)
	}

	if _, err := registrar.Register(context.Background(), "https://existing.example.com/rss"); !errors.Is(err, database.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
	for _, call := range fetcher.calls {
		if call == "https://existing.example.com/rss" {
			t.Error("Expected no fetch for an already registered stream")
		}
	}

	if _, err := registrar.Register(context.Background(), "https://down.example.com/rss"); ErrorKind(err) != KindTransport {
		t.Errorf("Expected TransportError, got %v", err)
	}

	fetcher.bodies["https://garbage.example.com/rss"] = "garbage"
	if _, err := registrar.Register(context.Background(), "https://garbage.example.com/rss"); ErrorKind(err) != KindParse {
		t.Errorf("Expected ParseError, got %v", err)
	}
}

func TestRegistrar_Seed(t *testing.T) {
	registrar, streams, _ := newTestRegistrar()
	filters := &fakeFilters{}

	file := &feed.StreamFile{
		Streams: []feed.StreamEntry{
			{Link: "https://a.example.com/rss"},
			{Link: "https://down.example.com/rss"},
			{Link: "https://a.example.com/rss"},
		},
		Filters: []feed.FilterEntry{
			{Filter: "/sponsored/", Title: "Sponsored"},
			{Filter: "/sponsored/"},
			{Filter: "regex:^https://ads\\."},
		},
	}

	registrar.Seed(context.Background(), file, filters)

	if len(streams.created) != 1 {
		t.Errorf("Expected 1 stream registered, got %d", len(streams.created))
	}
	if len(filters.upserted) != 2 {
		t.Fatalf("Expected 2 filters upserted, got %d", len(filters.upserted))
	}
	if filters.upserted[0].Title == nil || *filters.upserted[0].Title != "Sponsored" {
		t.Errorf("Expected title 'Sponsored', got %v", filters.upserted[0].Title)
	}
	if filters.upserted[1].Description != nil {
		t.Errorf("Expected no description, got %v", *filters.upserted[1].Description)
	}

	registrar.Seed(context.Background(), nil, filters)
}
