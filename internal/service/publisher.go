// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/affipub/affipub/internal/ai"
	"github.com/affipub/affipub/internal/linking"
	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/postprocess"
	"github.com/affipub/affipub/internal/stage"
	"github.com/affipub/affipub/internal/store"
	"github.com/affipub/affipub/internal/util"
	"github.com/affipub/affipub/internal/wordpress"
)

// relatedTitleCount is how many published titles are offered to the
// model as reference material.
const relatedTitleCount = 5

// Generator produces article text from a system and user prompt.
type Generator interface {
	Complete(ctx context.Context, system, user string) (*ai.Completion, error)
}

// WordPress is the site-facing surface the publisher needs.
type WordPress interface {
	TestConnection(ctx context.Context) (*wordpress.User, error)
	UploadMedia(ctx context.Context, filename string, data []byte) (*wordpress.Media, error)
	CreatePost(ctx context.Context, params wordpress.PostParams) (*wordpress.Post, error)
	UpdatePost(ctx context.Context, postID int64, params wordpress.PostParams) (*wordpress.Post, error)
}

// WordPressFactory builds a client for one stored site.
type WordPressFactory func(site model.Site) WordPress

// DefaultWordPressFactory builds real REST clients from site credentials.
func DefaultWordPressFactory(site model.Site) WordPress {
	return wordpress.NewClient(site.URL, site.Username, site.AppPassword)
}

// sanitize cleans model output before any further processing. Structural
// blocks and internal links are added afterwards and are not affected.
var sanitize = bluemonday.UGCPolicy()

// Publisher drives the generate and publish pipelines.
type Publisher struct {
	st        *store.Store
	gen       Generator
	wpFactory WordPressFactory
	events    *EventService
	logger    *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(st *store.Store, gen Generator, wpFactory WordPressFactory, events *EventService, logger *slog.Logger) *Publisher {
	if wpFactory == nil {
		wpFactory = DefaultWordPressFactory
	}
	return &Publisher{st: st, gen: gen, wpFactory: wpFactory, events: events, logger: logger}
}

// GenerateParams describes one generation request.
type GenerateParams struct {
	Topic          string
	Instructions   string
	AffiliateLinks []string
	Stage          string // empty = the strategy's current stage
	MainCategory   string
	SiteID         *int64
}

// Generate produces a new article preview: model output is converted to
// HTML, post-processed for the stage, auto-linked and stored with
// status preview.
func (p *Publisher) Generate(ctx context.Context, userID int64, params GenerateParams) (model.Article, error) {
	stageKey := params.Stage
	if stageKey == "" {
		strategy, err := p.st.StrategyByUser(ctx, userID)
		if err != nil {
			return model.Article{}, fmt.Errorf("loading strategy: %w", err)
		}
		stageKey = strategy.CurrentStage
	}
	st, ok := stage.Lookup(stageKey)
	if !ok {
		return model.Article{}, fmt.Errorf("unknown content stage %q", stageKey)
	}

	related, err := p.relatedTitles(ctx, userID)
	if err != nil {
		p.logger.Warn("loading related titles failed", "error", err)
	}

	completion, err := p.gen.Complete(ctx, ai.SystemPrompt(st), ai.UserPrompt(ai.GenerateRequest{
		Topic:          params.Topic,
		Instructions:   params.Instructions,
		AffiliateLinks: params.AffiliateLinks,
		RelatedTitles:  related,
	}))
	if err != nil {
		_ = p.events.LogError(ctx, model.EventCategoryGenerate, "generation failed: "+err.Error(), &userID, map[string]any{"topic": params.Topic})
		return model.Article{}, fmt.Errorf("generating content: %w", err)
	}

	html, err := ai.EnsureHTML(completion.Content)
	if err != nil {
		return model.Article{}, fmt.Errorf("converting content: %w", err)
	}
	html = sanitize.Sanitize(html)

	processed, err := postprocess.Process(html, st.Key, params.Topic)
	if err != nil {
		return model.Article{}, fmt.Errorf("post-processing content: %w", err)
	}

	article := model.Article{
		UserID:              userID,
		Topic:               params.Topic,
		Title:               processed.Title,
		Prompt:              params.Instructions,
		AffiliateLinks:      strings.Join(params.AffiliateLinks, "\n"),
		Content:             completion.Content,
		HTMLContent:         processed.HTML,
		Keywords:            processed.Keywords,
		ContentStage:        st.Key,
		IsPillar:            st.Key == stage.KeyPillar,
		IsConversionFocused: st.Key == stage.KeyConversion,
		MainCategory:        params.MainCategory,
		Status:              model.ArticleStatusPreview,
		SiteID:              util.NullInt64FromPtr(params.SiteID),
	}
	if kws := article.KeywordList(); len(kws) > 0 {
		article.FocusKeyword = kws[0]
	}

	// A preview linking pass shows the links the article would carry;
	// inbound counters are only bumped at publish time.
	engine, err := p.engineFor(ctx, userID)
	if err == nil {
		linked, inserted, linkErr := engine.AutoInsertLinks(ctx, article.HTMLContent, article.Topic, 0)
		if linkErr == nil && len(inserted) > 0 {
			article.HTMLContent = linked
			article.InternalLinks = marshalLinks(inserted)
		}
	}

	article, err = p.st.CreateArticle(ctx, article)
	if err != nil {
		return model.Article{}, fmt.Errorf("storing article: %w", err)
	}

	_ = p.events.LogInfo(ctx, model.EventCategoryGenerate, "article generated", &userID, map[string]any{
		"article_id": article.ID,
		"stage":      st.Key,
		"tokens":     completion.InputTokens + completion.OutputTokens,
	})
	p.logger.Info("article generated",
		"article_id", article.ID, "stage", st.Key, "topic", params.Topic)

	return article, nil
}

// Publish pushes an article to a WordPress site: images first, the post
// itself second, bookkeeping last. Failures leave the article in status
// failed with the error recorded.
func (p *Publisher) Publish(ctx context.Context, userID, articleID int64, siteID int64) (model.Article, error) {
	article, err := p.st.ArticleByID(ctx, userID, articleID)
	if err != nil {
		return model.Article{}, err
	}
	site, err := p.st.SiteByID(ctx, userID, siteID)
	if err != nil {
		return model.Article{}, err
	}
	if !site.IsActive {
		return model.Article{}, fmt.Errorf("site %q is inactive", site.Name)
	}

	content := article.EditedContent
	if content == "" {
		content = article.HTMLContent
	}

	engine, err := p.engineFor(ctx, userID)
	if err != nil {
		return model.Article{}, fmt.Errorf("loading linking profile: %w", err)
	}

	// The publish-time linking pass works against the live set of
	// published articles and rules.
	var inserted []linking.InsertedLink
	linked, links, linkErr := engine.AutoInsertLinks(ctx, content, article.Topic, article.ID)
	if linkErr != nil {
		p.logger.Warn("auto-linking failed", "article_id", article.ID, "error", linkErr)
	} else if len(links) > 0 {
		content = linked
		inserted = links
	}

	wp := p.wpFactory(site)

	featuredMedia, err := p.uploadImages(ctx, wp, article.ID)
	if err != nil {
		return p.failPublish(ctx, userID, article, err)
	}

	params := wordpress.PostParams{
		Title:         article.Title,
		Content:       content,
		Status:        "publish",
		Slug:          util.Slugify(article.Title),
		FeaturedMedia: featuredMedia,
	}

	var post *wordpress.Post
	if article.WordPressPostID != "" {
		postID, convErr := strconv.ParseInt(article.WordPressPostID, 10, 64)
		if convErr != nil {
			return p.failPublish(ctx, userID, article, fmt.Errorf("invalid stored post id %q", article.WordPressPostID))
		}
		post, err = wp.UpdatePost(ctx, postID, params)
	} else {
		post, err = wp.CreatePost(ctx, params)
	}
	if err != nil {
		return p.failPublish(ctx, userID, article, err)
	}

	now := time.Now().UTC()
	if err := p.st.MarkArticlePublished(ctx, userID, article.ID, strconv.FormatInt(post.ID, 10), post.Link, content, marshalLinks(inserted), now); err != nil {
		return model.Article{}, fmt.Errorf("recording publish: %w", err)
	}

	for _, link := range inserted {
		if err := p.bumpInbound(ctx, userID, link); err != nil {
			p.logger.Warn("bumping inbound link count failed", "url", link.URL, "error", err)
		}
	}

	published, err := p.st.ArticleByID(ctx, userID, article.ID)
	if err != nil {
		return model.Article{}, err
	}

	if err := engine.CreateRulesFromArticle(ctx, published); err != nil {
		p.logger.Warn("deriving link rules failed", "article_id", article.ID, "error", err)
	}
	if err := p.st.IncrementStageCount(ctx, userID, article.ContentStage); err != nil {
		p.logger.Warn("bumping stage counter failed", "article_id", article.ID, "error", err)
	}

	_ = p.events.LogInfo(ctx, model.EventCategoryPublish, "article published", &userID, map[string]any{
		"article_id": article.ID,
		"site_id":    site.ID,
		"post_id":    post.ID,
		"links":      len(inserted),
	})
	p.logger.Info("article published",
		"article_id", article.ID, "site_id", site.ID, "url", post.Link)

	return published, nil
}

// TestSite verifies a stored site's credentials.
func (p *Publisher) TestSite(ctx context.Context, site model.Site) (*wordpress.User, error) {
	user, err := p.wpFactory(site).TestConnection(ctx)
	if err != nil {
		_ = p.events.LogWarning(ctx, model.EventCategorySite, "site connection test failed", &site.UserID, map[string]any{
			"site_id": site.ID,
			"error":   err.Error(),
		})
		return nil, err
	}
	return user, nil
}

// uploadImages pushes an article's images to the site in upload order
// and returns the media ID for the featured image, 0 when there are no
// images.
func (p *Publisher) uploadImages(ctx context.Context, wp WordPress, articleID int64) (int64, error) {
	images, err := p.st.ImagesByArticle(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("listing images: %w", err)
	}

	var featured int64
	for i, img := range images {
		data, err := os.ReadFile(img.StoredPath)
		if err != nil {
			return 0, fmt.Errorf("reading image %s: %w", img.Filename, err)
		}
		media, err := wp.UploadMedia(ctx, img.Filename, data)
		if err != nil {
			return 0, fmt.Errorf("uploading image %s: %w", img.Filename, err)
		}
		if err := p.st.SetImageWordPressMedia(ctx, img.ID, strconv.FormatInt(media.ID, 10), media.SourceURL); err != nil {
			return 0, fmt.Errorf("recording media %s: %w", img.Filename, err)
		}
		if i == 0 {
			featured = media.ID
		}
	}
	return featured, nil
}

func (p *Publisher) failPublish(ctx context.Context, userID int64, article model.Article, cause error) (model.Article, error) {
	if err := p.st.MarkArticleFailed(ctx, userID, article.ID, cause.Error()); err != nil {
		p.logger.Error("recording publish failure failed", "article_id", article.ID, "error", err)
	}
	_ = p.events.LogError(ctx, model.EventCategoryPublish, "publish failed: "+cause.Error(), &userID, map[string]any{
		"article_id": article.ID,
	})
	return model.Article{}, fmt.Errorf("publishing article %d: %w", article.ID, cause)
}

// bumpInbound resolves an inserted link back to its target article and
// increments that target's inbound counter.
func (p *Publisher) bumpInbound(ctx context.Context, userID int64, link linking.InsertedLink) error {
	candidates, err := p.st.ArticlesByUser(ctx, userID, model.ArticleStatusPublished, 0, 0)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		if c.WordPressURL != "" && c.WordPressURL == link.URL {
			return p.st.IncrementInboundLinks(ctx, c.ID)
		}
	}
	return nil
}

func (p *Publisher) engineFor(ctx context.Context, userID int64) (*linking.Engine, error) {
	profile, err := p.st.LinkingProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return linking.NewEngine(p.st, profile, userID), nil
}

func (p *Publisher) relatedTitles(ctx context.Context, userID int64) ([]string, error) {
	published, err := p.st.ArticlesByUser(ctx, userID, model.ArticleStatusPublished, relatedTitleCount, 0)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(published))
	for _, a := range published {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return titles, nil
}

func marshalLinks(links []linking.InsertedLink) string {
	if len(links) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

