package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ FilterRepository = (*FilterRepo)(nil)

const defaultFilterPageSize = 20

type FilterRepo struct {
	db *DB
}

func NewFilterRepository(db *DB) *FilterRepo {
	return &FilterRepo{db: db}
}

// ListFilters returns the full rule set in creation order.
func (r *FilterRepo) ListFilters(ctx context.Context) ([]FilterRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pattern, title, description, date_time
		FROM filters
		ORDER BY date_time ASC, id ASC
	`)
	if err != nil {
		return nil, storageErr("list filters", err)
	}
	defer rows.Close()

	return scanFilters(rows)
}

func (r *FilterRepo) ListFiltersPage(ctx context.Context, page, pageSize int) (Page[FilterRule], error) {
	page, pageSize = normalizePage(page, pageSize, defaultFilterPageSize)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM filters`).Scan(&total); err != nil {
		return Page[FilterRule]{}, storageErr("count filters", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pattern, title, description, date_time
		FROM filters
		ORDER BY date_time ASC, id ASC
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page[FilterRule]{}, storageErr("list filters", err)
	}
	defer rows.Close()

	rules, err := scanFilters(rows)
	if err != nil {
		return Page[FilterRule]{}, err
	}

	return Page[FilterRule]{
		Items:      rules,
		Page:       page,
		TotalPages: totalPages(total, pageSize),
		Total:      total,
	}, nil
}

// UpsertFilter inserts a new rule, or updates rule input.ID when set.
// A pattern that already belongs to another rule yields ErrConflict.
func (r *FilterRepo) UpsertFilter(ctx context.Context, input FilterRuleInput) (*FilterRule, error) {
	if input.ID == 0 {
		now := time.Now().UTC().Format(TimeLayout)
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO filters (pattern, title, description, date_time) VALUES (?, ?, ?, ?)`,
			input.Pattern, deref(input.Title), deref(input.Description), now)
		if err != nil {
			return nil, storageErr("insert filter", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, storageErr("insert filter", err)
		}
		return r.getFilter(ctx, id)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE filters SET
			pattern = ?,
			title = COALESCE(?, title),
			description = COALESCE(?, description)
		WHERE id = ?
	`, input.Pattern, input.Title, input.Description, input.ID)
	if err != nil {
		return nil, storageErr("update filter", err)
	}
	if err := expectAffected(res, "update filter"); err != nil {
		return nil, err
	}
	return r.getFilter(ctx, input.ID)
}

func (r *FilterRepo) DeleteFilter(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM filters WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete filter", err)
	}
	return expectAffected(res, "delete filter")
}

func (r *FilterRepo) getFilter(ctx context.Context, id int64) (*FilterRule, error) {
	var f FilterRule
	err := r.db.QueryRowContext(ctx,
		`SELECT id, pattern, title, description, date_time FROM filters WHERE id = ?`, id,
	).Scan(&f.ID, &f.Pattern, &f.Title, &f.Description, &f.DateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get filter", err)
	}
	return &f, nil
}

func scanFilters(rows *sql.Rows) ([]FilterRule, error) {
	rules := []FilterRule{}
	for rows.Next() {
		var f FilterRule
		if err := rows.Scan(&f.ID, &f.Pattern, &f.Title, &f.Description, &f.DateTime); err != nil {
			return nil, storageErr("scan filter", err)
		}
		rules = append(rules, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate filters", err)
	}
	return rules, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
