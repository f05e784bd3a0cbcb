// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/model"
)

var profileColumns = []string{
	"id", "user_id", "auto_link_enabled", "max_internal_links", "min_links_spacing",
	"link_to_newer_posts", "prefer_same_category", "use_exact_title",
	"vary_anchor_text", "auto_create_rules", "created_at", "updated_at",
}

func scanProfile(row sq.RowScanner) (model.LinkingProfile, error) {
	var p model.LinkingProfile
	err := row.Scan(&p.ID, &p.UserID, &p.AutoLinkEnabled, &p.MaxInternalLinks,
		&p.MinLinksSpacing, &p.LinkToNewerPosts, &p.PreferSameCategory,
		&p.UseExactTitle, &p.VaryAnchorText, &p.AutoCreateRules,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// LinkingProfileByUser returns the user's linking profile, creating the
// default one on first access.
func (s *Store) LinkingProfileByUser(ctx context.Context, userID int64) (model.LinkingProfile, error) {
	row := s.sb.Select(profileColumns...).From("linking_profiles").
		Where(sq.Eq{"user_id": userID}).
		RunWith(s.db).QueryRowContext(ctx)
	p, err := scanProfile(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.LinkingProfile{}, fmt.Errorf("loading linking profile: %w", err)
	}

	p = model.DefaultLinkingProfile(userID)
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.sb.Insert("linking_profiles").
		Columns("user_id", "auto_link_enabled", "max_internal_links", "min_links_spacing",
			"link_to_newer_posts", "prefer_same_category", "use_exact_title",
			"vary_anchor_text", "auto_create_rules", "created_at", "updated_at").
		Values(p.UserID, p.AutoLinkEnabled, p.MaxInternalLinks, p.MinLinksSpacing,
			p.LinkToNewerPosts, p.PreferSameCategory, p.UseExactTitle,
			p.VaryAnchorText, p.AutoCreateRules, now, now).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.LinkingProfile{}, fmt.Errorf("creating linking profile: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return model.LinkingProfile{}, fmt.Errorf("creating linking profile: %w", err)
	}
	return p, nil
}

// UpdateLinkingProfile saves the user's linking configuration.
func (s *Store) UpdateLinkingProfile(ctx context.Context, p model.LinkingProfile) error {
	res, err := s.sb.Update("linking_profiles").
		Set("auto_link_enabled", p.AutoLinkEnabled).
		Set("max_internal_links", p.MaxInternalLinks).
		Set("min_links_spacing", p.MinLinksSpacing).
		Set("link_to_newer_posts", p.LinkToNewerPosts).
		Set("prefer_same_category", p.PreferSameCategory).
		Set("use_exact_title", p.UseExactTitle).
		Set("vary_anchor_text", p.VaryAnchorText).
		Set("auto_create_rules", p.AutoCreateRules).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": p.UserID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("updating linking profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
