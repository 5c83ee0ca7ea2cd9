package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

type fakeStreams struct {
	streams []database.Stream
	err     error
	created []database.Stream
}

func (f *fakeStreams) ListStreams(ctx context.Context) ([]database.Stream, error) {
	return f.streams, f.err
}

func (f *fakeStreams) GetStreamByLink(ctx context.Context, link string) (*database.Stream, error) {
	for _, s := range append(f.streams, f.created...) {
		if s.Link == link {
			return &s, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStreams) CreateStream(ctx context.Context, link, title, description string) (*database.Stream, error) {
	s := database.Stream{ID: int64(len(f.created) + 1), Link: link, Title: title, Description: description}
	f.created = append(f.created, s)
	return &s, nil
}

type fakeFilters struct {
	rules    []database.FilterRule
	err      error
	upserted []database.FilterRuleInput
}

func (f *fakeFilters) ListFilters(ctx context.Context) ([]database.FilterRule, error) {
	return f.rules, f.err
}

func (f *fakeFilters) UpsertFilter(ctx context.Context, input database.FilterRuleInput) (*database.FilterRule, error) {
	for _, existing := range f.upserted {
		if existing.Pattern == input.Pattern {
			return nil, database.ErrConflict
		}
	}
	f.upserted = append(f.upserted, input)
	return &database.FilterRule{Pattern: input.Pattern}, nil
}

type fakeItems struct {
	mu        sync.Mutex
	items     map[string]database.Item
	order     []string
	insertErr error
	purgeErr  error
	purged    int64
	cutoff    time.Time
	// Reports a link as absent even when stored, to exercise the insert conflict path.
	hideExisting bool
}

func newFakeItems() *fakeItems {
	return &fakeItems{items: make(map[string]database.Item)}
}

func (f *fakeItems) ExistsByLink(ctx context.Context, link string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hideExisting {
		return false, nil
	}
	_, ok := f.items[link]
	return ok, nil
}

func (f *fakeItems) InsertItem(ctx context.Context, item database.Item) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	if _, ok := f.items[item.Link]; ok {
		return 0, database.ErrConflict
	}
	f.items[item.Link] = item
	f.order = append(f.order, item.Link)
	return int64(len(f.order)), nil
}

func (f *fakeItems) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = cutoff
	return f.purged, f.purgeErr
}

func (f *fakeItems) get(link string) (database.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[link]
	return item, ok
}

type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	calls   []string
	onFetch func(url string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.onFetch != nil {
		f.onFetch(url)
	}
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return []byte(f.bodies[url]), nil
}

var errMalformed = errors.New("malformed feed")

// fakeParser maps a raw body to the candidates it yields.
type fakeParser struct {
	feeds    map[string][]feed.CandidateItem
	channels map[string]*feed.Channel
}

func (f *fakeParser) Run(data []byte) ([]feed.CandidateItem, error) {
	items, ok := f.feeds[string(data)]
	if !ok {
		return nil, &feed.ParseError{Err: errMalformed}
	}
	return items, nil
}

func (f *fakeParser) Channel(data []byte) (*feed.Channel, error) {
	channel, ok := f.channels[string(data)]
	if !ok {
		return nil, &feed.ParseError{Err: errMalformed}
	}
	return channel, nil
}

type fakeInspector struct {
	mu    sync.Mutex
	pages map[string]feed.PageInfo
	calls int
}

func (f *fakeInspector) Inspect(ctx context.Context, articleURL string) feed.PageInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pages[articleURL]
}
