package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-aggregator/app/cache"
	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
	"github.com/lysyi3m/rss-aggregator/app/ingest"
	"github.com/lysyi3m/rss-aggregator/app/tasks"
)

const (
	rootToken   = "root-token"
	adminToken  = "admin-token"
	readerToken = "reader-token"
)

type fakeScheduler struct {
	mu       sync.Mutex
	enqueued []tasks.TaskInterface
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}

func (f *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, task)
	return nil
}

func (f *fakeScheduler) Stats() tasks.Stats {
	return tasks.Stats{Workers: 1}
}

type testEnv struct {
	t          *testing.T
	server     *gin.Engine
	streams    *database.StreamRepo
	items      *database.ItemRepo
	filters    *database.FilterRepo
	users      *database.UserRepo
	scheduler  *fakeScheduler
	feedServer *httptest.Server
}

// newFeedServer serves one RSS document with three items and an article page per item.
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Source</title><link>%[1]s</link><description>Source description</description>
<item><title>One</title><link>%[1]s/articles/1</link><description>First</description><pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate></item>
<item><title>Two</title><link>%[1]s/sponsored/2</link><description>Second</description></item>
<item><title>Three</title><link>%[1]s/articles/3</link><description>Third</description></item>
</channel></rss>`, base)
	})
	mux.HandleFunc("/articles/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><meta property="og:image" content="/img/a.png"></head><body><p>Article</p></body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestEnv(t *testing.T, feedCache cache.FeedCache) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	env := &testEnv{
		t:          t,
		streams:    database.NewStreamRepository(db),
		items:      database.NewItemRepository(db),
		filters:    database.NewFilterRepository(db),
		users:      database.NewUserRepository(db),
		scheduler:  &fakeScheduler{},
		feedServer: newFeedServer(t),
	}

	ctx := context.Background()
	if err := EnsureSuperadmin(ctx, env.users, "root", "root-password", rootToken); err != nil {
		t.Fatalf("Failed to seed superadmin: %v", err)
	}
	env.addUser("editor", "editor-password", adminToken, database.LevelAdmin)
	env.addUser("reader", "reader-password", readerToken, database.LevelUser)

	fetcher := feed.NewFetcher(http.DefaultClient, "test-agent", 5*time.Second)
	parser := feed.NewParser()
	resolver := feed.NewImageResolver(http.DefaultClient, feed.NewContentExtractor(), "test-agent", 5*time.Second)
	orchestrator := ingest.NewOrchestrator(env.streams, env.filters, env.items, fetcher, parser, resolver, 720*time.Hour, 1)

	handler := NewHandler(Dependencies{
		Streams:   env.streams,
		Items:     env.items,
		Filters:   env.filters,
		Users:     env.users,
		Registrar: ingest.NewRegistrar(env.streams, fetcher, parser),
		Runner:    tasks.NewRunner(orchestrator, feedCache),
		Scheduler: env.scheduler,
		Resolver:  resolver,
		Cache:     feedCache,
		Channel: Channel{
			Title:       "Latest",
			Description: "The latest news from around the world.",
			PublicURL:   "https://news.example.com",
			Version:     "test",
			CacheTTL:    time.Minute,
		},
	})
	env.server = NewServer(handler)

	return env
}

func (e *testEnv) addUser(username, password, token string, level database.UserLevel) {
	e.t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		e.t.Fatalf("Failed to hash password: %v", err)
	}
	if _, err := e.users.CreateUser(context.Background(), username, hash, token, level); err != nil {
		e.t.Fatalf("Failed to create user %s: %v", username, err)
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()

	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
