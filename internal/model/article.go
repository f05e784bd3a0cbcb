// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain entities persisted by the store layer.
package model

import (
	"database/sql"
	"strings"
	"time"
)

// Article statuses
const (
	ArticleStatusPreview   = "preview"
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
	ArticleStatusFailed    = "failed"
)

// Article represents a generated post, from first preview through
// publication to a WordPress site.
type Article struct {
	ID                  int64         `json:"id"`
	UserID              int64         `json:"user_id"`
	SiteID              sql.NullInt64 `json:"site_id,omitempty"`
	Title               string        `json:"title"`
	Topic               string        `json:"topic"`
	Prompt              string        `json:"prompt,omitempty"`
	AffiliateLinks      string        `json:"affiliate_links,omitempty"`
	Content             string        `json:"content"`
	EditedContent       string        `json:"edited_content"`
	HTMLContent         string        `json:"html_content"`
	Keywords            string        `json:"keywords"`
	FocusKeyword        string        `json:"focus_keyword"`
	ContentStage        string        `json:"content_stage"`
	IsPillar            bool          `json:"is_pillar"`
	IsConversionFocused bool          `json:"is_conversion_focused"`
	MainCategory        string        `json:"main_category"`
	Status              string        `json:"status"`
	ErrorMessage        string        `json:"error_message,omitempty"`
	WordPressPostID     string        `json:"wordpress_post_id,omitempty"`
	WordPressURL        string        `json:"wordpress_url,omitempty"`
	InboundLinkCount    int64         `json:"inbound_link_count"`
	InternalLinks       string        `json:"internal_links,omitempty"`
	PublishedAt         sql.NullTime  `json:"published_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// IsPublished returns true if the article has been published to WordPress.
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// KeywordList returns the stored comma-joined keywords as a slice of
// trimmed, lowercased entries.
func (a *Article) KeywordList() []string {
	if a.Keywords == "" {
		return nil
	}
	parts := strings.Split(a.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ArticleImage represents an image uploaded alongside an article.
// The first image of an article becomes the featured image at publish time.
type ArticleImage struct {
	ID               int64     `json:"id"`
	ArticleID        int64     `json:"article_id"`
	Filename         string    `json:"filename"`
	StoredPath       string    `json:"stored_path"`
	Width            int64     `json:"width"`
	Height           int64     `json:"height"`
	WordPressMediaID string    `json:"wordpress_media_id,omitempty"`
	WordPressURL     string    `json:"wordpress_url,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
