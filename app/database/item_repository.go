package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var _ ItemRepository = (*ItemRepo)(nil)

const defaultItemPageSize = 20

// ItemRepo handles database operations for ingested items
type ItemRepo struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// ExistsByLink reports whether an item with link is stored, soft-deleted or not.
func (r *ItemRepo) ExistsByLink(ctx context.Context, link string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE link = ? LIMIT 1`, link).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("check item link", err)
	}
	return true, nil
}

// InsertItem stores a new item. A link that is already stored yields ErrConflict.
func (r *ItemRepo) InsertItem(ctx context.Context, item Item) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO items (link, title, description, pub_date, date_time, image, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO NOTHING
	`, item.Link, item.Title, item.Description, item.PubDate, item.DateTime, item.Image, item.Deleted)
	if err != nil {
		return 0, storageErr("insert item", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("insert item", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("insert item %s: %w", item.Link, ErrConflict)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert item", err)
	}
	return id, nil
}

// PurgeOlderThan physically removes items ingested before cutoff.
func (r *ItemRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM items WHERE date_time < ?`, cutoff.UTC().Format(TimeLayout))
	if err != nil {
		return 0, storageErr("purge items", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("purge items", err)
	}
	return n, nil
}

// ListItems returns one page of live items ordered by ingestion time.
func (r *ItemRepo) ListItems(ctx context.Context, query ItemQuery) (Page[Item], error) {
	page, pageSize := normalizePage(query.Page, query.PageSize, defaultItemPageSize)
	order := "DESC"
	if query.Order == SortAsc {
		order = "ASC"
	}

	total, err := r.CountItems(ctx)
	if err != nil {
		return Page[Item]{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, link, title, description, pub_date, date_time, image, deleted
		FROM items
		WHERE deleted = 0
		ORDER BY date_time `+order+`, id `+order+`
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page[Item]{}, storageErr("list items", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return Page[Item]{}, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return Page[Item]{}, storageErr("iterate items", err)
	}

	return Page[Item]{
		Items:      items,
		Page:       page,
		TotalPages: totalPages(total, pageSize),
		Total:      total,
	}, nil
}

func (r *ItemRepo) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, link, title, description, pub_date, date_time, image, deleted
		FROM items WHERE id = ?
	`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// UpdateItem applies the non-nil fields of update to item id.
func (r *ItemRepo) UpdateItem(ctx context.Context, id int64, update ItemUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Link != nil {
		add("link", *update.Link)
	}
	if update.PubDate != nil {
		add("pub_date", *update.PubDate)
	}
	if update.Image != nil {
		add("image", *update.Image)
	}
	if update.Deleted != nil {
		add("deleted", *update.Deleted)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return storageErr("update item", err)
	}
	return expectAffected(res, "update item")
}

// SoftDeleteItem hides a live item. Deleting an already hidden item is ErrNotFound.
func (r *ItemRepo) SoftDeleteItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return storageErr("soft delete item", err)
	}
	return expectAffected(res, "soft delete item")
}

// CountItems returns the number of live items.
func (r *ItemRepo) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE deleted = 0`).Scan(&count); err != nil {
		return 0, storageErr("count items", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Link, &item.Title, &item.Description,
		&item.PubDate, &item.DateTime, &item.Image, &item.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("scan item", err)
	}
	return &item, nil
}
