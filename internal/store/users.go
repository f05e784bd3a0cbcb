// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/model"
)

// CreateUser inserts a user and returns it with its assigned ID.
func (s *Store) CreateUser(ctx context.Context, name, email string) (model.User, error) {
	now := time.Now().UTC()
	res, err := s.sb.Insert("users").
		Columns("name", "email", "created_at").
		Values(name, email, now).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	return model.User{ID: id, Name: name, Email: email, CreatedAt: now}, nil
}

// UserByID returns one user.
func (s *Store) UserByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := s.sb.Select("id", "name", "email", "created_at").
		From("users").Where(sq.Eq{"id": id}).
		RunWith(s.db).QueryRowContext(ctx).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return model.User{}, wrapNotFound(err)
	}
	return u, nil
}

// EnsureDefaultUser creates the default owner account on first start.
// Requests without explicit user identification are attributed to it.
func (s *Store) EnsureDefaultUser(ctx context.Context) (model.User, error) {
	u, err := s.UserByID(ctx, 1)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.User{}, err
	}
	return s.CreateUser(ctx, "Admin", "admin@localhost")
}
