// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/affipub/affipub/internal/middleware"
)

// GetProfile handles GET /api/profile. A missing profile is created
// with defaults on first access.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.st.LinkingProfileByUser(r.Context(), middleware.GetUserID(r))
	if err != nil {
		h.writeStoreError(w, err, "linking profile")
		return
	}
	WriteSuccess(w, profile, nil)
}

// UpdateProfileRequest represents the request body for updating the
// linking profile. Omitted fields keep their stored values.
type UpdateProfileRequest struct {
	AutoLinkEnabled    *bool  `json:"auto_link_enabled,omitempty"`
	MaxInternalLinks   *int64 `json:"max_internal_links,omitempty"`
	MinLinksSpacing    *int64 `json:"min_links_spacing,omitempty"`
	LinkToNewerPosts   *bool  `json:"link_to_newer_posts,omitempty"`
	PreferSameCategory *bool  `json:"prefer_same_category,omitempty"`
	UseExactTitle      *bool  `json:"use_exact_title,omitempty"`
	VaryAnchorText     *bool  `json:"vary_anchor_text,omitempty"`
	AutoCreateRules    *bool  `json:"auto_create_rules,omitempty"`
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := middleware.GetUserID(r)
	profile, err := h.st.LinkingProfileByUser(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err, "linking profile")
		return
	}

	if req.AutoLinkEnabled != nil {
		profile.AutoLinkEnabled = *req.AutoLinkEnabled
	}
	if req.MaxInternalLinks != nil {
		if *req.MaxInternalLinks < 0 {
			WriteValidationError(w, map[string]string{"max_internal_links": "Must not be negative"})
			return
		}
		profile.MaxInternalLinks = *req.MaxInternalLinks
	}
	if req.MinLinksSpacing != nil {
		if *req.MinLinksSpacing < 0 {
			WriteValidationError(w, map[string]string{"min_links_spacing": "Must not be negative"})
			return
		}
		profile.MinLinksSpacing = *req.MinLinksSpacing
	}
	if req.LinkToNewerPosts != nil {
		profile.LinkToNewerPosts = *req.LinkToNewerPosts
	}
	if req.PreferSameCategory != nil {
		profile.PreferSameCategory = *req.PreferSameCategory
	}
	if req.UseExactTitle != nil {
		profile.UseExactTitle = *req.UseExactTitle
	}
	if req.VaryAnchorText != nil {
		profile.VaryAnchorText = *req.VaryAnchorText
	}
	if req.AutoCreateRules != nil {
		profile.AutoCreateRules = *req.AutoCreateRules
	}

	if err := h.st.UpdateLinkingProfile(r.Context(), profile); err != nil {
		h.writeStoreError(w, err, "linking profile")
		return
	}
	profile, err = h.st.LinkingProfileByUser(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err, "linking profile")
		return
	}
	WriteSuccess(w, profile, nil)
}
