package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ StreamRepository = (*StreamRepo)(nil)

type StreamRepo struct {
	db *DB
}

func NewStreamRepository(db *DB) *StreamRepo {
	return &StreamRepo{db: db}
}

// ListStreams returns every stream in registration order.
func (r *StreamRepo) ListStreams(ctx context.Context) ([]Stream, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, link, title, description, created_at
		FROM streams
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, storageErr("list streams", err)
	}
	defer rows.Close()

	streams := []Stream{}
	for rows.Next() {
		var s Stream
		if err := rows.Scan(&s.ID, &s.Link, &s.Title, &s.Description, &s.CreatedAt); err != nil {
			return nil, storageErr("scan stream", err)
		}
		streams = append(streams, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate streams", err)
	}

	return streams, nil
}

func (r *StreamRepo) GetStream(ctx context.Context, id int64) (*Stream, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *StreamRepo) GetStreamByLink(ctx context.Context, link string) (*Stream, error) {
	return r.getOne(ctx, "link = ?", link)
}

func (r *StreamRepo) getOne(ctx context.Context, where string, arg any) (*Stream, error) {
	var s Stream
	err := r.db.QueryRowContext(ctx,
		`SELECT id, link, title, description, created_at FROM streams WHERE `+where, arg,
	).Scan(&s.ID, &s.Link, &s.Title, &s.Description, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get stream", err)
	}
	return &s, nil
}

// CreateStream registers a stream. A duplicate link yields ErrConflict.
func (r *StreamRepo) CreateStream(ctx context.Context, link, title, description string) (*Stream, error) {
	createdAt := time.Now().UTC().Format(TimeLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO streams (link, title, description, created_at) VALUES (?, ?, ?, ?)`,
		link, title, description, createdAt)
	if err != nil {
		return nil, storageErr("create stream", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create stream", err)
	}

	return &Stream{ID: id, Link: link, Title: title, Description: description, CreatedAt: createdAt}, nil
}

func (r *StreamRepo) DeleteStream(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM streams WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete stream", err)
	}
	return expectAffected(res, "delete stream")
}

func (r *StreamRepo) CountStreams(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM streams`).Scan(&count); err != nil {
		return 0, storageErr("count streams", err)
	}
	return count, nil
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
