// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/linking"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store provides typed queries over a SQLite database.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// New creates a Store over an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// DB exposes the underlying connection, used for health checks.
func (s *Store) DB() *sql.DB { return s.db }

var _ linking.Repository = (*Store)(nil)

func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
