// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/linking"
	"github.com/affipub/affipub/internal/model"
)

var ruleColumns = []string{
	"id", "user_id", "keyword", "target_article_id", "priority",
	"max_usage", "is_active", "created_at",
}

func scanRule(row sq.RowScanner) (model.LinkRule, error) {
	var r model.LinkRule
	err := row.Scan(&r.ID, &r.UserID, &r.Keyword, &r.TargetArticleID,
		&r.Priority, &r.MaxUsage, &r.IsActive, &r.CreatedAt)
	return r, err
}

// CreateRule inserts a manual link rule.
func (s *Store) CreateRule(ctx context.Context, r model.LinkRule) (model.LinkRule, error) {
	r.CreatedAt = time.Now().UTC()
	res, err := s.sb.Insert("link_rules").
		Columns("user_id", "keyword", "target_article_id", "priority", "max_usage", "is_active", "created_at").
		Values(r.UserID, r.Keyword, r.TargetArticleID, r.Priority, r.MaxUsage, r.IsActive, r.CreatedAt).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.LinkRule{}, fmt.Errorf("creating rule: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return model.LinkRule{}, fmt.Errorf("creating rule: %w", err)
	}
	return r, nil
}

// UpsertRule creates a rule unless the same (user, keyword, target)
// rule already exists, in which case it is left untouched.
func (s *Store) UpsertRule(ctx context.Context, r model.LinkRule) error {
	_, err := s.sb.Insert("link_rules").
		Columns("user_id", "keyword", "target_article_id", "priority", "max_usage", "is_active", "created_at").
		Values(r.UserID, r.Keyword, r.TargetArticleID, r.Priority, r.MaxUsage, r.IsActive, time.Now().UTC()).
		Suffix("ON CONFLICT (user_id, keyword, target_article_id) DO NOTHING").
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upserting rule: %w", err)
	}
	return nil
}

// RuleByID returns one of the user's rules.
func (s *Store) RuleByID(ctx context.Context, userID, id int64) (model.LinkRule, error) {
	row := s.sb.Select(ruleColumns...).From("link_rules").
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).QueryRowContext(ctx)
	r, err := scanRule(row)
	if err != nil {
		return model.LinkRule{}, wrapNotFound(err)
	}
	return r, nil
}

// RulesByUser lists all of the user's rules by descending priority.
func (s *Store) RulesByUser(ctx context.Context, userID int64) ([]model.LinkRule, error) {
	rows, err := s.sb.Select(ruleColumns...).From("link_rules").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("priority DESC", "id ASC").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []model.LinkRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRule updates a rule's keyword, priority, usage cap and active flag.
func (s *Store) UpdateRule(ctx context.Context, r model.LinkRule) error {
	res, err := s.sb.Update("link_rules").
		Set("keyword", r.Keyword).
		Set("target_article_id", r.TargetArticleID).
		Set("priority", r.Priority).
		Set("max_usage", r.MaxUsage).
		Set("is_active", r.IsActive).
		Where(sq.Eq{"id": r.ID, "user_id": r.UserID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRule removes one of the user's rules.
func (s *Store) DeleteRule(ctx context.Context, userID, id int64) error {
	res, err := s.sb.Delete("link_rules").
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveRules returns the user's active rules joined with their target
// article's URL and title, ordered by descending priority.
func (s *Store) ActiveRules(ctx context.Context, userID int64) ([]linking.RuleTarget, error) {
	rows, err := s.sb.Select(
		"r.id", "r.user_id", "r.keyword", "r.target_article_id", "r.priority",
		"r.max_usage", "r.is_active", "r.created_at",
		"a.wordpress_url", "a.title").
		From("link_rules r").
		Join("articles a ON a.id = r.target_article_id").
		Where(sq.Eq{"r.user_id": userID, "r.is_active": true}).
		OrderBy("r.priority DESC", "r.id ASC").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active rules: %w", err)
	}
	defer rows.Close()

	var out []linking.RuleTarget
	for rows.Next() {
		var rt linking.RuleTarget
		r := &rt.Rule
		if err := rows.Scan(&r.ID, &r.UserID, &r.Keyword, &r.TargetArticleID,
			&r.Priority, &r.MaxUsage, &r.IsActive, &r.CreatedAt,
			&rt.TargetURL, &rt.TargetTitle); err != nil {
			return nil, fmt.Errorf("scanning active rule: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
