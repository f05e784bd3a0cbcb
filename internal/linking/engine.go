// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package linking scores previously published articles for topical
// relevance to new content and rewrites HTML to insert internal links.
// An Engine is created per request; its rule-usage counters live only
// for a single insertion pass and are never persisted.
package linking

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/textutil"
)

// Scoring weights. Higher is more relevant.
const (
	scoreExactTopic     = 10.0
	scoreTopicSubstring = 5.0
	scoreKeywordInList  = 2.0
	scoreKeywordInTitle = 3.0
	scoreFocusKeyword   = 5.0
	scoreSameCategory   = 3.0

	// overLinkedPenalty discounts targets that already collect many
	// inbound internal links.
	overLinkedThreshold = 10
	overLinkedPenalty   = 0.8
)

// candidateCap bounds the number of candidates scored per request.
const candidateCap = 50

// scoringKeywordCount is how many extracted keywords take part in
// candidate filtering and scoring.
const scoringKeywordCount = 10

// CandidateFilter narrows the published articles considered as link
// targets before scoring.
type CandidateFilter struct {
	UserID          int64
	ExcludeID       int64     // 0 = no exclusion
	PublishedBefore time.Time // zero = no recency cut
	Keywords        []string  // at least one must match title/topic/keywords/focus
	Limit           int
}

// RuleTarget pairs an active link rule with its target's URL and title.
type RuleTarget struct {
	Rule        model.LinkRule
	TargetURL   string
	TargetTitle string
}

// Repository is the persistence surface the engine needs.
type Repository interface {
	// LinkCandidates returns published articles matching the filter.
	LinkCandidates(ctx context.Context, f CandidateFilter) ([]model.Article, error)
	// ActiveRules returns the user's active rules ordered by priority descending.
	ActiveRules(ctx context.Context, userID int64) ([]RuleTarget, error)
	// ArticleByID returns one of the user's articles.
	ArticleByID(ctx context.Context, userID, id int64) (model.Article, error)
	// UpsertRule creates a rule, or does nothing when the
	// (user, keyword, target) rule already exists.
	UpsertRule(ctx context.Context, rule model.LinkRule) error
}

// ScoredArticle is a candidate link target with its relevance score.
type ScoredArticle struct {
	Article model.Article
	Score   float64
}

// Engine runs relevance scoring and link insertion for one user using
// their linking profile.
type Engine struct {
	repo    Repository
	profile model.LinkingProfile
	userID  int64
	rng     *rand.Rand
}

// NewEngine creates an engine for the given user and profile.
func NewEngine(repo Repository, profile model.LinkingProfile, userID int64) *Engine {
	return NewEngineWithRand(repo, profile, userID, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewEngineWithRand creates an engine with a caller-supplied random
// source, used by anchor-text variation.
func NewEngineWithRand(repo Repository, profile model.LinkingProfile, userID int64, rng *rand.Rand) *Engine {
	return &Engine{repo: repo, profile: profile, userID: userID, rng: rng}
}

// FindRelevantArticles returns up to limit published articles worth
// linking to from content about topic, ordered by descending relevance.
// A limit of 0 uses the profile's max_internal_links.
func (e *Engine) FindRelevantArticles(ctx context.Context, topic, content string, currentID int64, limit int) ([]ScoredArticle, error) {
	if limit <= 0 {
		limit = int(e.profile.MaxInternalLinks)
	}

	keywords := textutil.TopKeywords(topic, content, 20)
	top := keywords
	if len(top) > scoringKeywordCount {
		top = top[:scoringKeywordCount]
	}

	filter := CandidateFilter{
		UserID:    e.userID,
		ExcludeID: currentID,
		Keywords:  top,
		Limit:     candidateCap,
	}

	if !e.profile.LinkToNewerPosts && currentID != 0 {
		current, err := e.repo.ArticleByID(ctx, e.userID, currentID)
		if err == nil && current.PublishedAt.Valid {
			filter.PublishedBefore = current.PublishedAt.Time
		}
	}

	candidates, err := e.repo.LinkCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredArticle, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredArticle{Article: c, Score: e.RelevanceScore(c, top, topic)})
	}

	// Stable sort keeps candidate order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// RelevanceScore computes the additive relevance of a candidate target
// for content about topic, using the caller's top extracted keywords.
func (e *Engine) RelevanceScore(target model.Article, keywords []string, topic string) float64 {
	score := 0.0

	topicLower := strings.ToLower(topic)
	targetTopicLower := strings.ToLower(target.Topic)

	if topicLower == targetTopicLower {
		score += scoreExactTopic
	} else if topicLower != "" && targetTopicLower != "" &&
		(strings.Contains(targetTopicLower, topicLower) || strings.Contains(topicLower, targetTopicLower)) {
		score += scoreTopicSubstring
	}

	targetKeywords := target.KeywordList()
	titleLower := strings.ToLower(target.Title)
	focusLower := strings.ToLower(target.FocusKeyword)
	for _, kw := range keywords {
		for _, tk := range targetKeywords {
			if kw == tk {
				score += scoreKeywordInList
				break
			}
		}
		if strings.Contains(titleLower, kw) {
			score += scoreKeywordInTitle
		}
		if kw == focusLower && focusLower != "" {
			score += scoreFocusKeyword
		}
	}

	// Any categorized target gets the boost; the source article's own
	// category is never compared.
	if e.profile.PreferSameCategory && target.MainCategory != "" {
		score += scoreSameCategory
	}

	if target.InboundLinkCount > overLinkedThreshold {
		score *= overLinkedPenalty
	}

	return score
}

// GenerateAnchorTexts produces up to 5 candidate anchor strings for a
// target article, ordered by preference and deduplicated.
func (e *Engine) GenerateAnchorTexts(target model.Article, contextKeywords []string) []string {
	var anchors []string

	if e.profile.UseExactTitle {
		anchors = append(anchors, target.Title)
	}
	if target.FocusKeyword != "" {
		anchors = append(anchors, target.FocusKeyword)
	}

	titleWords := strings.Fields(strings.ToLower(target.Title))
	if len(titleWords) > 3 {
		anchors = append(anchors, strings.Join(titleWords[:3], " "))
		anchors = append(anchors, strings.Join(titleWords[len(titleWords)-3:], " "))
	}

	if target.Topic != "" {
		anchors = append(anchors, strings.ToLower(target.Topic))
	}

	titleLower := strings.ToLower(target.Title)
	topicLower := strings.ToLower(target.Topic)
	for _, kw := range contextKeywords {
		if strings.Contains(titleLower, kw) || strings.Contains(topicLower, kw) {
			anchors = append(anchors, kw)
		}
	}

	seen := make(map[string]struct{}, len(anchors))
	out := make([]string, 0, 5)
	for _, a := range anchors {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// CreateRulesFromArticle derives link rules from a freshly published
// article when the profile enables auto-created rules: one rule per
// meaningful keyword from its topic and title, defaulting to priority 1
// and a per-article usage cap of 3. Existing rules are left untouched.
func (e *Engine) CreateRulesFromArticle(ctx context.Context, article model.Article) error {
	if !e.profile.AutoCreateRules {
		return nil
	}

	keywords := textutil.TopKeywords(article.Topic, article.Title, 20)
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}

	for _, kw := range keywords {
		if len(kw) <= 4 {
			continue
		}
		rule := model.LinkRule{
			UserID:          e.userID,
			Keyword:         kw,
			TargetArticleID: article.ID,
			Priority:        model.DefaultRulePriority,
			MaxUsage:        model.DefaultRuleMaxUsage,
			IsActive:        true,
		}
		if err := e.repo.UpsertRule(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}
