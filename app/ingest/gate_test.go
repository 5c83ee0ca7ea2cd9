package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

func TestGate_AcceptsNewItem(t *testing.T) {
	items := newFakeItems()
	inspector := &fakeInspector{pages: map[string]feed.PageInfo{
		"https://news.example.com/story": {ImageURL: "https://cdn.example.com/a.png"},
	}}
	gate := NewGate(items, inspector)
	gate.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 45, 0, time.FixedZone("X", 3600)) }

	outcome, err := gate.IngestIfNew(context.Background(), feed.CandidateItem{
		Title:       "Story",
		Link:        "https://news.example.com/story",
		Description: "Body",
		PubDate:     "Fri, 01 Mar 2024 10:00:00 GMT",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome != Accepted {
		t.Errorf("Expected Accepted, got %s", outcome)
	}

	stored, ok := items.get("https://news.example.com/story")
	if !ok {
		t.Fatal("Expected item to be stored")
	}
	if stored.DateTime != "2024-03-01 11:30:45" {
		t.Errorf("Expected UTC ingestion time '2024-03-01 11:30:45', got '%s'", stored.DateTime)
	}
	if stored.Image != "https://cdn.example.com/a.png" {
		t.Errorf("Expected resolved image, got '%s'", stored.Image)
	}
	if stored.Deleted {
		t.Error("Expected item not to be deleted")
	}
	if stored.PubDate != "Fri, 01 Mar 2024 10:00:00 GMT" {
		t.Errorf("Expected source pubDate to be kept, got '%s'", stored.PubDate)
	}
}

func TestGate_SkipsExistingLink(t *testing.T) {
	items := newFakeItems()
	items.items["https://example.com/a"] = database.Item{Link: "https://example.com/a"}
	inspector := &fakeInspector{}

	outcome, err := NewGate(items, inspector).IngestIfNew(context.Background(), feed.CandidateItem{Link: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome != Duplicate {
		t.Errorf("Expected Duplicate, got %s", outcome)
	}
	if inspector.calls != 0 {
		t.Errorf("Expected no page inspection for duplicates, got %d calls", inspector.calls)
	}
}

func TestGate_InsertConflictIsBenign(t *testing.T) {
	items := newFakeItems()
	items.items["https://example.com/a"] = database.Item{Link: "https://example.com/a"}
	items.hideExisting = true

	outcome, err := NewGate(items, nil).IngestIfNew(context.Background(), feed.CandidateItem{Link: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Expected conflict to be swallowed, got: %v", err)
	}
	if outcome != Duplicate {
		t.Errorf("Expected Duplicate, got %s", outcome)
	}
}

func TestGate_StorageErrorPropagates(t *testing.T) {
	items := newFakeItems()
	items.insertErr = &database.StorageError{Op: "insert item", Err: errors.New("disk full")}

	_, err := NewGate(items, nil).IngestIfNew(context.Background(), feed.CandidateItem{Link: "https://example.com/a"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if kind := ErrorKind(err); kind != KindStorage {
		t.Errorf("Expected %s, got %s", KindStorage, kind)
	}
}

func TestGate_EmbeddedImageWins(t *testing.T) {
	items := newFakeItems()
	inspector := &fakeInspector{pages: map[string]feed.PageInfo{
		"https://news.example.com/story": {ImageURL: "https://cdn.example.com/scraped.png", Excerpt: "Excerpt"},
	}}

	_, err := NewGate(items, inspector).IngestIfNew(context.Background(), feed.CandidateItem{
		Link:  "https://news.example.com/story",
		Image: "/media/embedded.png",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored, _ := items.get("https://news.example.com/story")
	if stored.Image != "https://news.example.com/media/embedded.png" {
		t.Errorf("Expected normalized embedded image, got '%s'", stored.Image)
	}
	if stored.Description != "Excerpt" {
		t.Errorf("Expected excerpt for empty description, got '%s'", stored.Description)
	}
}

func TestGate_NoInspectionWhenComplete(t *testing.T) {
	inspector := &fakeInspector{}

	_, err := NewGate(newFakeItems(), inspector).IngestIfNew(context.Background(), feed.CandidateItem{
		Link:        "https://news.example.com/story",
		Description: "Body",
		Image:       "https://cdn.example.com/a.png",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if inspector.calls != 0 {
		t.Errorf("Expected no page inspection, got %d calls", inspector.calls)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&feed.TransportError{URL: "u", StatusCode: 500}, KindTransport},
		{&feed.ParseError{Err: errMalformed}, KindParse},
		{&feed.FilterCompileError{Pattern: "(", Err: errMalformed}, KindFilterCompile},
		{database.ErrConflict, KindConflict},
		{&database.StorageError{Op: "x", Err: errMalformed}, KindStorage},
		{context.Canceled, KindCancelled},
		{errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("Expected ErrorKind(%v) = %s, got %s", tt.err, tt.want, got)
		}
	}
}
