// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package linking

import (
	"context"
	"strings"

	"github.com/affipub/affipub/internal/textutil"
)

// RelatedArticle is a published article surfaced as a linking candidate.
type RelatedArticle struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Topic     string `json:"topic"`
	Published string `json:"published,omitempty"`
}

// RuleSuggestion is a manual rule whose keyword appears in the content.
type RuleSuggestion struct {
	Keyword     string `json:"keyword"`
	TargetURL   string `json:"target_url"`
	TargetTitle string `json:"target_title"`
	Priority    int64  `json:"priority"`
}

// AutoLinkSuggestion proposes anchors for one relevant article.
type AutoLinkSuggestion struct {
	ArticleID        int64    `json:"article_id"`
	URL              string   `json:"url"`
	Title            string   `json:"title"`
	SuggestedAnchors []string `json:"suggested_anchors"`
	Relevance        string   `json:"relevance"` // "high" for the top 3, else "medium"
}

// Suggestions bundles everything the editor UI needs to offer links
// for a draft without modifying it.
type Suggestions struct {
	AutoLinks       []AutoLinkSuggestion `json:"auto_links"`
	ManualRules     []RuleSuggestion     `json:"manual_rules"`
	RelatedArticles []RelatedArticle     `json:"related_posts"`
	KeywordsFound   []string             `json:"keywords_found"`
}

// Suggest returns link suggestions for content about topic. Missing
// data (no candidates, no matching rules) degrades to empty slices.
func (e *Engine) Suggest(ctx context.Context, topic, content string) (*Suggestions, error) {
	out := &Suggestions{
		AutoLinks:       []AutoLinkSuggestion{},
		ManualRules:     []RuleSuggestion{},
		RelatedArticles: []RelatedArticle{},
		KeywordsFound:   []string{},
	}

	relevant, err := e.FindRelevantArticles(ctx, topic, content, 0, 0)
	if err != nil {
		return nil, err
	}

	for _, sc := range relevant {
		rel := RelatedArticle{
			ID:    sc.Article.ID,
			Title: sc.Article.Title,
			URL:   sc.Article.WordPressURL,
			Topic: sc.Article.Topic,
		}
		if sc.Article.PublishedAt.Valid {
			rel.Published = sc.Article.PublishedAt.Time.Format("2006-01-02")
		}
		out.RelatedArticles = append(out.RelatedArticles, rel)
	}

	rules, err := e.repo.ActiveRules(ctx, e.userID)
	if err != nil {
		return nil, err
	}
	contentLower := strings.ToLower(content)
	for _, rt := range rules {
		if rt.TargetURL == "" {
			continue
		}
		if strings.Contains(contentLower, strings.ToLower(rt.Rule.Keyword)) {
			out.ManualRules = append(out.ManualRules, RuleSuggestion{
				Keyword:     rt.Rule.Keyword,
				TargetURL:   rt.TargetURL,
				TargetTitle: rt.TargetTitle,
				Priority:    rt.Rule.Priority,
			})
		}
	}

	keywords := textutil.TopKeywords(topic, content, 20)
	if len(keywords) > scoringKeywordCount {
		keywords = keywords[:scoringKeywordCount]
	}
	out.KeywordsFound = keywords

	for i, sc := range relevant {
		if sc.Article.WordPressURL == "" {
			continue
		}
		relevance := "medium"
		if i < 3 {
			relevance = "high"
		}
		out.AutoLinks = append(out.AutoLinks, AutoLinkSuggestion{
			ArticleID:        sc.Article.ID,
			URL:              sc.Article.WordPressURL,
			Title:            sc.Article.Title,
			SuggestedAnchors: e.GenerateAnchorTexts(sc.Article, textutil.TopKeywords(topic, content, 20)),
			Relevance:        relevance,
		})
	}

	return out, nil
}
