// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/model"
)

// InsertEvent appends one audit log entry.
func (s *Store) InsertEvent(ctx context.Context, e model.Event) error {
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	_, err := s.sb.Insert("events").
		Columns("level", "category", "message", "user_id", "metadata", "created_at").
		Values(e.Level, e.Category, e.Message, e.UserID, e.Metadata, time.Now().UTC()).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// RecentEvents returns the latest events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sb.Select("id", "level", "category", "message", "user_id", "metadata", "created_at").
		From("events").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneEvents deletes events created before the cutoff and returns how
// many were removed.
func (s *Store) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sb.Delete("events").
		Where(sq.Lt{"created_at": before.UTC()}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return res.RowsAffected()
}
