package api

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-aggregator/app/cache"
	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
	"github.com/lysyi3m/rss-aggregator/app/ingest"
	"github.com/lysyi3m/rss-aggregator/app/tasks"
)

type GeneratorInterface interface {
	Run(channel feed.ChannelInfo, items []database.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type StreamRegistrar interface {
	Register(ctx context.Context, link string) (*database.Stream, error)
}

type IngestRunner interface {
	Run(ctx context.Context) (ingest.RunSummary, error)
	LastSummary() (ingest.RunSummary, bool)
}

var _ IngestRunner = (*tasks.Runner)(nil)

// Channel describes the published aggregate feed.
type Channel struct {
	Title       string
	Description string
	PublicURL   string
	Version     string
	CacheTTL    time.Duration
}

// Dependencies wires the handler. Cache and Scheduler may be nil.
type Dependencies struct {
	Streams   database.StreamRepository
	Items     database.ItemRepository
	Filters   database.FilterRepository
	Users     database.UserRepository
	Registrar StreamRegistrar
	Runner    IngestRunner
	Scheduler tasks.TaskSchedulerInterface
	Resolver  tasks.ImageResolver
	Cache     cache.FeedCache
	Channel   Channel
}

type Handler struct {
	streams   database.StreamRepository
	items     database.ItemRepository
	filters   database.FilterRepository
	users     database.UserRepository
	registrar StreamRegistrar
	runner    IngestRunner
	scheduler tasks.TaskSchedulerInterface
	resolver  tasks.ImageResolver
	cache     cache.FeedCache
	generator GeneratorInterface
	channel   Channel
}

type linkRequest struct {
	Link string `json:"link"`
}

type itemUpdateRequest struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
	PubDate     *string `json:"pubDate"`
	Image       *string `json:"image"`
	Deleted     *bool   `json:"deleted"`
}

func (r itemUpdateRequest) toUpdate() database.ItemUpdate {
	return database.ItemUpdate{
		Title:       r.Title,
		Description: r.Description,
		Link:        r.Link,
		PubDate:     r.PubDate,
		Image:       r.Image,
		Deleted:     r.Deleted,
	}
}

type filterRequest struct {
	ID          int64   `json:"id"`
	Filter      string  `json:"filter"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	UserLevel string `json:"user_level"`
}

type updateUserRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	NewPassword    string `json:"new_password"`
	VerifyPassword string `json:"verify_password"`
	Token          string `json:"token"`
	UserLevel      string `json:"user_level"`
}

type encryptRequest struct {
	Input string `json:"input"`
}

// userView is a user as listed to admins, without credentials.
type userView struct {
	ID       int64              `json:"id"`
	Username string             `json:"username"`
	Level    database.UserLevel `json:"user_level"`
}
