// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/affipub/affipub/internal/middleware"
	"github.com/affipub/affipub/internal/model"
)

// RuleRequest represents the request body for creating or updating a
// link rule.
type RuleRequest struct {
	Keyword         string `json:"keyword"`
	TargetArticleID int64  `json:"target_article_id"`
	Priority        *int64 `json:"priority,omitempty"`
	MaxUsage        *int64 `json:"max_usage,omitempty"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

// ListRules handles GET /api/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.st.RulesByUser(r.Context(), middleware.GetUserID(r))
	if err != nil {
		h.writeStoreError(w, err, "rules")
		return
	}
	WriteSuccess(w, rules, nil)
}

// CreateRule handles POST /api/rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	keyword := strings.ToLower(strings.TrimSpace(req.Keyword))
	if keyword == "" {
		WriteValidationError(w, map[string]string{"keyword": "Keyword is required"})
		return
	}
	if req.TargetArticleID <= 0 {
		WriteValidationError(w, map[string]string{"target_article_id": "Target article is required"})
		return
	}

	userID := middleware.GetUserID(r)
	// The target must be an article the user owns.
	if _, err := h.st.ArticleByID(r.Context(), userID, req.TargetArticleID); err != nil {
		h.writeStoreError(w, err, "target article")
		return
	}

	rule := model.LinkRule{
		UserID:          userID,
		Keyword:         keyword,
		TargetArticleID: req.TargetArticleID,
		Priority:        model.DefaultRulePriority,
		MaxUsage:        model.DefaultRuleMaxUsage,
		IsActive:        true,
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.MaxUsage != nil {
		rule.MaxUsage = *req.MaxUsage
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	rule, err := h.st.CreateRule(r.Context(), rule)
	if err != nil {
		h.writeStoreError(w, err, "rule")
		return
	}
	WriteCreated(w, rule)
}

// UpdateRule handles PUT /api/rules/{id}.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid rule ID", nil)
		return
	}
	var req RuleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r)
	rule, err := h.st.RuleByID(r.Context(), userID, id)
	if err != nil {
		h.writeStoreError(w, err, "rule")
		return
	}

	if keyword := strings.ToLower(strings.TrimSpace(req.Keyword)); keyword != "" {
		rule.Keyword = keyword
	}
	if req.TargetArticleID > 0 {
		if _, err := h.st.ArticleByID(r.Context(), userID, req.TargetArticleID); err != nil {
			h.writeStoreError(w, err, "target article")
			return
		}
		rule.TargetArticleID = req.TargetArticleID
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.MaxUsage != nil {
		rule.MaxUsage = *req.MaxUsage
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.st.UpdateRule(r.Context(), rule); err != nil {
		h.writeStoreError(w, err, "rule")
		return
	}
	WriteSuccess(w, rule, nil)
}

// DeleteRule handles DELETE /api/rules/{id}.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid rule ID", nil)
		return
	}
	if err := h.st.DeleteRule(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.writeStoreError(w, err, "rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
