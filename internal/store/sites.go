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

var siteColumns = []string{
	"id", "user_id", "name", "url", "username", "app_password",
	"is_active", "created_at", "updated_at",
}

func scanSite(row sq.RowScanner) (model.Site, error) {
	var st model.Site
	err := row.Scan(&st.ID, &st.UserID, &st.Name, &st.URL, &st.Username,
		&st.AppPassword, &st.IsActive, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// CreateSite inserts a WordPress site for a user.
func (s *Store) CreateSite(ctx context.Context, site model.Site) (model.Site, error) {
	now := time.Now().UTC()
	site.CreatedAt = now
	site.UpdatedAt = now
	res, err := s.sb.Insert("sites").
		Columns("user_id", "name", "url", "username", "app_password", "is_active", "created_at", "updated_at").
		Values(site.UserID, site.Name, site.URL, site.Username, site.AppPassword, site.IsActive, now, now).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.Site{}, fmt.Errorf("creating site: %w", err)
	}
	site.ID, err = res.LastInsertId()
	if err != nil {
		return model.Site{}, fmt.Errorf("creating site: %w", err)
	}
	return site, nil
}

// SiteByID returns one of the user's sites.
func (s *Store) SiteByID(ctx context.Context, userID, id int64) (model.Site, error) {
	row := s.sb.Select(siteColumns...).From("sites").
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).QueryRowContext(ctx)
	site, err := scanSite(row)
	if err != nil {
		return model.Site{}, wrapNotFound(err)
	}
	return site, nil
}

// SitesByUser returns all of the user's sites, newest first.
func (s *Store) SitesByUser(ctx context.Context, userID int64) ([]model.Site, error) {
	rows, err := s.sb.Select(siteColumns...).From("sites").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	var out []model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

// UpdateSite updates a site's mutable fields. An empty AppPassword
// keeps the stored credential.
func (s *Store) UpdateSite(ctx context.Context, site model.Site) error {
	q := s.sb.Update("sites").
		Set("name", site.Name).
		Set("url", site.URL).
		Set("username", site.Username).
		Set("is_active", site.IsActive).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": site.ID, "user_id": site.UserID})
	if site.AppPassword != "" {
		q = q.Set("app_password", site.AppPassword)
	}
	res, err := q.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("updating site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSite removes one of the user's sites.
func (s *Store) DeleteSite(ctx context.Context, userID, id int64) error {
	res, err := s.sb.Delete("sites").
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("deleting site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
