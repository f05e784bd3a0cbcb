// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/affipub/affipub/internal/middleware"
	"github.com/affipub/affipub/internal/model"
)

const dashboardRecentCount = 10

// DashboardResponse summarizes the state of the content pipeline.
type DashboardResponse struct {
	Total          int64             `json:"total"`
	Published      int64             `json:"published"`
	Failed         int64             `json:"failed"`
	StatusCounts   map[string]int64  `json:"status_counts"`
	RecentArticles []ArticleResponse `json:"recent_articles"`
}

// Dashboard handles GET /api/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	counts, err := h.st.ArticleStatusCounts(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err, "articles")
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	recent, err := h.st.ArticlesByUser(r.Context(), userID, "", dashboardRecentCount, 0)
	if err != nil {
		h.writeStoreError(w, err, "articles")
		return
	}
	recentOut := make([]ArticleResponse, 0, len(recent))
	for _, a := range recent {
		recentOut = append(recentOut, articleToResponse(a, false))
	}

	WriteSuccess(w, DashboardResponse{
		Total:          total,
		Published:      counts[model.ArticleStatusPublished],
		Failed:         counts[model.ArticleStatusFailed],
		StatusCounts:   counts,
		RecentArticles: recentOut,
	}, nil)
}

// ListEvents handles GET /api/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 50, 1, 200)
	events, err := h.st.RecentEvents(r.Context(), limit)
	if err != nil {
		h.writeStoreError(w, err, "events")
		return
	}
	WriteSuccess(w, events, nil)
}
