package database

import (
	"context"
	"time"
)

type StreamRepository interface {
	ListStreams(ctx context.Context) ([]Stream, error)
	GetStream(ctx context.Context, id int64) (*Stream, error)
	GetStreamByLink(ctx context.Context, link string) (*Stream, error)
	CreateStream(ctx context.Context, link, title, description string) (*Stream, error)
	DeleteStream(ctx context.Context, id int64) error
	CountStreams(ctx context.Context) (int, error)
}

type ItemRepository interface {
	ExistsByLink(ctx context.Context, link string) (bool, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	ListItems(ctx context.Context, query ItemQuery) (Page[Item], error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	UpdateItem(ctx context.Context, id int64, update ItemUpdate) error
	SoftDeleteItem(ctx context.Context, id int64) error
	CountItems(ctx context.Context) (int, error)
}

type FilterRepository interface {
	ListFilters(ctx context.Context) ([]FilterRule, error)
	ListFiltersPage(ctx context.Context, page, pageSize int) (Page[FilterRule], error)
	UpsertFilter(ctx context.Context, input FilterRuleInput) (*FilterRule, error)
	DeleteFilter(ctx context.Context, id int64) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash, token string, level UserLevel) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByToken(ctx context.Context, token string) (*User, error)
	ListUsers(ctx context.Context, page, pageSize int) (Page[User], error)
	UpdateUser(ctx context.Context, username string, update UserUpdate) error
	DeleteUser(ctx context.Context, username string) error
	CountUsers(ctx context.Context) (int, error)
}
