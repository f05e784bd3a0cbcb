// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/affipub/affipub/internal/middleware"
	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/service"
)

// ArticleResponse represents an article in API responses.
type ArticleResponse struct {
	ID                  int64      `json:"id"`
	SiteID              *int64     `json:"site_id,omitempty"`
	Title               string     `json:"title"`
	Topic               string     `json:"topic"`
	Prompt              string     `json:"prompt,omitempty"`
	AffiliateLinks      string     `json:"affiliate_links,omitempty"`
	Content             string     `json:"content,omitempty"`
	EditedContent       string     `json:"edited_content,omitempty"`
	HTMLContent         string     `json:"html_content,omitempty"`
	Keywords            string     `json:"keywords"`
	FocusKeyword        string     `json:"focus_keyword"`
	ContentStage        string     `json:"content_stage"`
	IsPillar            bool       `json:"is_pillar"`
	IsConversionFocused bool       `json:"is_conversion_focused"`
	MainCategory        string     `json:"main_category,omitempty"`
	Status              string     `json:"status"`
	ErrorMessage        string     `json:"error_message,omitempty"`
	WordPressPostID     string     `json:"wordpress_post_id,omitempty"`
	WordPressURL        string     `json:"wordpress_url,omitempty"`
	InboundLinkCount    int64      `json:"inbound_link_count"`
	InternalLinks       any        `json:"internal_links,omitempty"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// articleToResponse converts a model.Article to ArticleResponse.
// includeBody controls whether the content fields are carried; list
// endpoints leave them out.
func articleToResponse(a model.Article, includeBody bool) ArticleResponse {
	resp := ArticleResponse{
		ID:                  a.ID,
		Title:               a.Title,
		Topic:               a.Topic,
		Keywords:            a.Keywords,
		FocusKeyword:        a.FocusKeyword,
		ContentStage:        a.ContentStage,
		IsPillar:            a.IsPillar,
		IsConversionFocused: a.IsConversionFocused,
		MainCategory:        a.MainCategory,
		Status:              a.Status,
		ErrorMessage:        a.ErrorMessage,
		WordPressPostID:     a.WordPressPostID,
		WordPressURL:        a.WordPressURL,
		InboundLinkCount:    a.InboundLinkCount,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
	if a.SiteID.Valid {
		resp.SiteID = &a.SiteID.Int64
	}
	if a.PublishedAt.Valid {
		resp.PublishedAt = &a.PublishedAt.Time
	}
	if includeBody {
		resp.Prompt = a.Prompt
		resp.AffiliateLinks = a.AffiliateLinks
		resp.Content = a.Content
		resp.EditedContent = a.EditedContent
		resp.HTMLContent = a.HTMLContent
		if a.InternalLinks != "" && a.InternalLinks != "[]" {
			var links any
			if err := json.Unmarshal([]byte(a.InternalLinks), &links); err == nil {
				resp.InternalLinks = links
			}
		}
	}
	return resp
}

// GenerateRequest represents the request body for generating an article.
type GenerateRequest struct {
	Topic          string   `json:"topic"`
	Instructions   string   `json:"prompt,omitempty"`
	AffiliateLinks []string `json:"affiliate_links,omitempty"`
	Stage          string   `json:"stage,omitempty"`
	MainCategory   string   `json:"main_category,omitempty"`
	SiteID         *int64   `json:"site_id,omitempty"`
}

// Generate handles POST /api/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Topic == "" {
		WriteValidationError(w, map[string]string{"topic": "Topic is required"})
		return
	}

	article, err := h.publisher.Generate(r.Context(), middleware.GetUserID(r), service.GenerateParams{
		Topic:          req.Topic,
		Instructions:   req.Instructions,
		AffiliateLinks: req.AffiliateLinks,
		Stage:          req.Stage,
		MainCategory:   req.MainCategory,
		SiteID:         req.SiteID,
	})
	if err != nil {
		h.logger.Error("generation failed", "topic", req.Topic, "error", err)
		WriteError(w, http.StatusBadGateway, "generation_failed", err.Error(), nil)
		return
	}

	WriteCreated(w, articleToResponse(article, true))
}

// ListArticles handles GET /api/articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	status := r.URL.Query().Get("status")

	page := ParseIntParam(r, "page", 1, 1, 0)
	perPage := ParseIntParam(r, "per_page", 20, 1, 100)

	articles, err := h.st.ArticlesByUser(r.Context(), userID, status, perPage, (page-1)*perPage)
	if err != nil {
		h.writeStoreError(w, err, "articles")
		return
	}

	out := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleToResponse(a, false))
	}
	WriteSuccess(w, out, &Meta{Page: page, PerPage: perPage})
}

// GetArticle handles GET /api/articles/{id}.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}

	article, err := h.st.ArticleByID(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		h.writeStoreError(w, err, "article")
		return
	}
	WriteSuccess(w, articleToResponse(article, true), nil)
}

// UpdateArticleRequest represents the request body for updating an article.
type UpdateArticleRequest struct {
	Title         *string `json:"title,omitempty"`
	EditedContent *string `json:"edited_content,omitempty"`
	Keywords      *string `json:"keywords,omitempty"`
	FocusKeyword  *string `json:"focus_keyword,omitempty"`
	MainCategory  *string `json:"main_category,omitempty"`
	ContentStage  *string `json:"content_stage,omitempty"`
	Status        *string `json:"status,omitempty"`
	SiteID        *int64  `json:"site_id,omitempty"`
}

// UpdateArticle handles PUT /api/articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}
	var req UpdateArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r)
	article, err := h.st.ArticleByID(r.Context(), userID, id)
	if err != nil {
		h.writeStoreError(w, err, "article")
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case model.ArticleStatusPreview, model.ArticleStatusDraft:
			article.Status = *req.Status
		default:
			WriteValidationError(w, map[string]string{"status": "Status must be preview or draft"})
			return
		}
	}
	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.EditedContent != nil {
		article.EditedContent = *req.EditedContent
	}
	if req.Keywords != nil {
		article.Keywords = *req.Keywords
	}
	if req.FocusKeyword != nil {
		article.FocusKeyword = *req.FocusKeyword
	}
	if req.MainCategory != nil {
		article.MainCategory = *req.MainCategory
	}
	if req.ContentStage != nil {
		article.ContentStage = *req.ContentStage
	}
	if req.SiteID != nil {
		article.SiteID.Int64 = *req.SiteID
		article.SiteID.Valid = true
	}

	if err := h.st.UpdateArticleContent(r.Context(), article); err != nil {
		h.writeStoreError(w, err, "article")
		return
	}

	article, err = h.st.ArticleByID(r.Context(), userID, id)
	if err != nil {
		h.writeStoreError(w, err, "article")
		return
	}
	WriteSuccess(w, articleToResponse(article, true), nil)
}

// DeleteArticle handles DELETE /api/articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}
	if err := h.st.DeleteArticle(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.writeStoreError(w, err, "article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishRequest represents the request body for publishing an article.
type PublishRequest struct {
	SiteID int64 `json:"site_id"`
}

// PublishArticle handles POST /api/articles/{id}/publish.
func (h *Handler) PublishArticle(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}
	var req PublishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SiteID <= 0 {
		WriteValidationError(w, map[string]string{"site_id": "Site ID is required"})
		return
	}

	article, err := h.publisher.Publish(r.Context(), middleware.GetUserID(r), id, req.SiteID)
	if err != nil {
		h.logger.Error("publish failed", "article_id", id, "error", err)
		WriteError(w, http.StatusBadGateway, "publish_failed", err.Error(), nil)
		return
	}
	WriteSuccess(w, articleToResponse(article, true), nil)
}

// LinkSuggestions handles GET /api/articles/{id}/link-suggestions.
func (h *Handler) LinkSuggestions(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}

	engine, userID, err := h.engineFor(r)
	if err != nil {
		h.writeStoreError(w, err, "linking profile")
		return
	}

	article, err := h.st.ArticleByID(r.Context(), userID, id)
	if err != nil {
		h.writeStoreError(w, err, "article")
		return
	}

	content := article.EditedContent
	if content == "" {
		content = article.HTMLContent
	}
	suggestions, err := engine.Suggest(r.Context(), article.Topic, content)
	if err != nil {
		h.logger.Error("link suggestions failed", "article_id", id, "error", err)
		WriteInternalError(w, "Failed to compute link suggestions")
		return
	}
	WriteSuccess(w, suggestions, nil)
}
