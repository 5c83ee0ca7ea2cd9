package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var _ UserRepository = (*UserRepo)(nil)

const defaultUserPageSize = 10

type UserRepo struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser stores a user. A taken username or token yields ErrConflict.
func (r *UserRepo) CreateUser(ctx context.Context, username, passwordHash, token string, level UserLevel) (*User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password, token, user_level) VALUES (?, ?, ?, ?)`,
		username, passwordHash, nullable(token), string(level))
	if err != nil {
		return nil, storageErr("create user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create user", err)
	}

	return &User{ID: id, Username: username, PasswordHash: passwordHash, Token: token, Level: level}, nil
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, "username = ?", username)
}

func (r *UserRepo) GetUserByToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, "token = ?", token)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password, COALESCE(token, ''), user_level FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// ListUsers returns one page of users ordered by id.
func (r *UserRepo) ListUsers(ctx context.Context, page, pageSize int) (Page[User], error) {
	page, pageSize = normalizePage(page, pageSize, defaultUserPageSize)

	total, err := r.CountUsers(ctx)
	if err != nil {
		return Page[User]{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, password, COALESCE(token, ''), user_level
		FROM users
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page[User]{}, storageErr("list users", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return Page[User]{}, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return Page[User]{}, storageErr("iterate users", err)
	}

	return Page[User]{
		Items:      users,
		Page:       page,
		TotalPages: totalPages(total, pageSize),
		Total:      total,
	}, nil
}

// UpdateUser applies the non-nil fields of update to username.
func (r *UserRepo) UpdateUser(ctx context.Context, username string, update UserUpdate) error {
	var sets []string
	var args []any

	if update.PasswordHash != nil {
		sets = append(sets, "password = ?")
		args = append(args, *update.PasswordHash)
	}
	if update.Token != nil {
		sets = append(sets, "token = ?")
		args = append(args, nullable(*update.Token))
	}
	if update.Level != nil {
		sets = append(sets, "user_level = ?")
		args = append(args, string(*update.Level))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, username)

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE username = ?`, args...)
	if err != nil {
		return storageErr("update user", err)
	}
	return expectAffected(res, "update user")
}

func (r *UserRepo) DeleteUser(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return storageErr("delete user", err)
	}
	return expectAffected(res, "delete user")
}

func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, storageErr("count users", err)
	}
	return count, nil
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var level string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Token, &level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr("scan user", err)
	}
	u.Level = UserLevel(level)
	return &u, nil
}

// nullable keeps empty tokens out of the UNIQUE index.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
