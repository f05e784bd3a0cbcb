// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/linking"
	"github.com/affipub/affipub/internal/model"
)

var articleColumns = []string{
	"id", "user_id", "site_id", "title", "topic", "prompt", "affiliate_links",
	"content", "edited_content", "html_content", "keywords", "focus_keyword",
	"content_stage", "is_pillar", "is_conversion_focused", "main_category",
	"status", "error_message", "wordpress_post_id", "wordpress_url",
	"inbound_link_count", "internal_links", "published_at", "created_at", "updated_at",
}

func scanArticle(row sq.RowScanner) (model.Article, error) {
	var a model.Article
	err := row.Scan(&a.ID, &a.UserID, &a.SiteID, &a.Title, &a.Topic, &a.Prompt,
		&a.AffiliateLinks, &a.Content, &a.EditedContent, &a.HTMLContent,
		&a.Keywords, &a.FocusKeyword, &a.ContentStage, &a.IsPillar,
		&a.IsConversionFocused, &a.MainCategory, &a.Status, &a.ErrorMessage,
		&a.WordPressPostID, &a.WordPressURL, &a.InboundLinkCount,
		&a.InternalLinks, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// CreateArticle inserts a freshly generated article and returns it with
// its assigned ID.
func (s *Store) CreateArticle(ctx context.Context, a model.Article) (model.Article, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = model.ArticleStatusPreview
	}
	res, err := s.sb.Insert("articles").
		Columns("user_id", "site_id", "title", "topic", "prompt", "affiliate_links",
			"content", "edited_content", "html_content", "keywords", "focus_keyword",
			"content_stage", "is_pillar", "is_conversion_focused", "main_category",
			"status", "internal_links", "created_at", "updated_at").
		Values(a.UserID, a.SiteID, a.Title, a.Topic, a.Prompt, a.AffiliateLinks,
			a.Content, a.EditedContent, a.HTMLContent, a.Keywords, a.FocusKeyword,
			a.ContentStage, a.IsPillar, a.IsConversionFocused, a.MainCategory,
			a.Status, a.InternalLinks, now, now).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.Article{}, fmt.Errorf("creating article: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return model.Article{}, fmt.Errorf("creating article: %w", err)
	}
	return a, nil
}

// ArticleByID returns one of the user's articles.
func (s *Store) ArticleByID(ctx context.Context, userID, id int64) (model.Article, error) {
	row := s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).QueryRowContext(ctx)
	a, err := scanArticle(row)
	if err != nil {
		return model.Article{}, wrapNotFound(err)
	}
	return a, nil
}

// ArticlesByUser lists the user's articles, newest first. An empty
// status matches all statuses.
func (s *Store) ArticlesByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]model.Article, error) {
	q := s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit)).Offset(uint64(offset))
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateArticleContent saves editable fields of an unpublished or
// published article.
func (s *Store) UpdateArticleContent(ctx context.Context, a model.Article) error {
	res, err := s.sb.Update("articles").
		Set("title", a.Title).
		Set("edited_content", a.EditedContent).
		Set("html_content", a.HTMLContent).
		Set("keywords", a.Keywords).
		Set("focus_keyword", a.FocusKeyword).
		Set("main_category", a.MainCategory).
		Set("content_stage", a.ContentStage).
		Set("site_id", a.SiteID).
		Set("status", a.Status).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": a.ID, "user_id": a.UserID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkArticlePublished records a successful publish. The content is the
// auto-linked HTML that went to WordPress, stored back so the local copy
// matches the live post.
func (s *Store) MarkArticlePublished(ctx context.Context, userID, id int64, postID, url, content, internalLinks string, publishedAt time.Time) error {
	_, err := s.sb.Update("articles").
		Set("status", model.ArticleStatusPublished).
		Set("wordpress_post_id", postID).
		Set("wordpress_url", url).
		Set("html_content", content).
		Set("internal_links", internalLinks).
		Set("error_message", "").
		Set("published_at", publishedAt.UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("marking article published: %w", err)
	}
	return nil
}

// MarkArticleFailed records a failed publish attempt with its reason.
func (s *Store) MarkArticleFailed(ctx context.Context, userID, id int64, msg string) error {
	_, err := s.sb.Update("articles").
		Set("status", model.ArticleStatusFailed).
		Set("error_message", msg).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("marking article failed: %w", err)
	}
	return nil
}

// IncrementInboundLinks bumps the inbound internal link counter of a
// link target.
func (s *Store) IncrementInboundLinks(ctx context.Context, id int64) error {
	_, err := s.sb.Update("articles").
		Set("inbound_link_count", sq.Expr("inbound_link_count + 1")).
		Where(sq.Eq{"id": id}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("incrementing inbound links: %w", err)
	}
	return nil
}

// DeleteArticle removes one of the user's articles.
func (s *Store) DeleteArticle(ctx context.Context, userID, id int64) error {
	res, err := s.sb.Delete("articles").
		Where(sq.Eq{"id": id, "user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ArticleStatusCounts returns the number of the user's articles per status.
func (s *Store) ArticleStatusCounts(ctx context.Context, userID int64) (map[string]int64, error) {
	rows, err := s.sb.Select("status", "COUNT(*)").From("articles").
		Where(sq.Eq{"user_id": userID}).
		GroupBy("status").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting articles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

// LinkCandidates returns published articles with a live WordPress URL
// matching the filter. At least one keyword must appear in the title,
// topic or keyword list, or equal the focus keyword.
func (s *Store) LinkCandidates(ctx context.Context, f linking.CandidateFilter) ([]model.Article, error) {
	q := s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"user_id": f.UserID, "status": model.ArticleStatusPublished}).
		Where(sq.NotEq{"wordpress_url": ""})

	if f.ExcludeID != 0 {
		q = q.Where(sq.NotEq{"id": f.ExcludeID})
	}
	if !f.PublishedBefore.IsZero() {
		q = q.Where(sq.Lt{"published_at": f.PublishedBefore.UTC()})
	}
	if len(f.Keywords) > 0 {
		or := sq.Or{}
		for _, kw := range f.Keywords {
			lower := strings.ToLower(kw)
			pattern := "%" + lower + "%"
			or = append(or,
				sq.Like{"lower(title)": pattern},
				sq.Like{"lower(topic)": pattern},
				sq.Like{"lower(keywords)": pattern},
				// The focus keyword is a single term; match it whole.
				sq.Eq{"lower(focus_keyword)": lower},
			)
		}
		q = q.Where(or)
	}

	q = q.OrderBy("published_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	rows, err := q.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing link candidates: %w", err)
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
