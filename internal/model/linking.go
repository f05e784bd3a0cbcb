// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Defaults applied when a linking profile is first constructed for a user.
const (
	DefaultMaxInternalLinks = 5
	DefaultMinLinksSpacing  = 150
	DefaultRulePriority     = 1
	DefaultRuleMaxUsage     = 3
)

// LinkRule is a manual (keyword -> target article) linking directive.
// Unique per (user, keyword, target article).
type LinkRule struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Keyword         string    `json:"keyword"`
	TargetArticleID int64     `json:"target_article_id"`
	Priority        int64     `json:"priority"`
	MaxUsage        int64     `json:"max_usage"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// LinkingProfile holds per-user configuration governing automatic
// internal linking. One row per user, created lazily on first access.
//
// MinLinksSpacing is stored and exposed but not enforced by the
// scoring algorithm.
type LinkingProfile struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	AutoLinkEnabled    bool      `json:"auto_link_enabled"`
	MaxInternalLinks   int64     `json:"max_internal_links"`
	MinLinksSpacing    int64     `json:"min_links_spacing"`
	LinkToNewerPosts   bool      `json:"link_to_newer_posts"`
	PreferSameCategory bool      `json:"prefer_same_category"`
	UseExactTitle      bool      `json:"use_exact_title"`
	VaryAnchorText     bool      `json:"vary_anchor_text"`
	AutoCreateRules    bool      `json:"auto_create_rules"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultLinkingProfile returns the profile applied when a user has no
// stored configuration yet.
func DefaultLinkingProfile(userID int64) LinkingProfile {
	return LinkingProfile{
		UserID:             userID,
		AutoLinkEnabled:    true,
		MaxInternalLinks:   DefaultMaxInternalLinks,
		MinLinksSpacing:    DefaultMinLinksSpacing,
		LinkToNewerPosts:   false,
		PreferSameCategory: true,
		UseExactTitle:      false,
		VaryAnchorText:     true,
		AutoCreateRules:    true,
	}
}
