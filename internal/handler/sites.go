// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/affipub/affipub/internal/middleware"
	"github.com/affipub/affipub/internal/model"
)

// SiteRequest represents the request body for creating or updating a
// site. AppPassword left empty on update keeps the stored credential.
type SiteRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Username    string `json:"username"`
	AppPassword string `json:"app_password"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

func validateSiteRequest(req SiteRequest, creating bool) map[string]string {
	errs := map[string]string{}
	if req.Name == "" {
		errs["name"] = "Name is required"
	}
	if req.URL == "" {
		errs["url"] = "URL is required"
	} else if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		errs["url"] = "URL must start with http:// or https://"
	}
	if req.Username == "" {
		errs["username"] = "Username is required"
	}
	if creating && req.AppPassword == "" {
		errs["app_password"] = "Application password is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ListSites handles GET /api/sites.
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.st.SitesByUser(r.Context(), middleware.GetUserID(r))
	if err != nil {
		h.writeStoreError(w, err, "sites")
		return
	}
	WriteSuccess(w, sites, nil)
}

// CreateSite handles POST /api/sites.
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req SiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateSiteRequest(req, true); errs != nil {
		WriteValidationError(w, errs)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	site, err := h.st.CreateSite(r.Context(), model.Site{
		UserID:      middleware.GetUserID(r),
		Name:        req.Name,
		URL:         strings.TrimRight(req.URL, "/"),
		Username:    req.Username,
		AppPassword: req.AppPassword,
		IsActive:    active,
	})
	if err != nil {
		h.writeStoreError(w, err, "site")
		return
	}
	WriteCreated(w, site)
}

// GetSite handles GET /api/sites/{id}.
func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid site ID", nil)
		return
	}
	site, err := h.st.SiteByID(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		h.writeStoreError(w, err, "site")
		return
	}
	WriteSuccess(w, site, nil)
}

// UpdateSite handles PUT /api/sites/{id}.
func (h *Handler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid site ID", nil)
		return
	}
	var req SiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateSiteRequest(req, false); errs != nil {
		WriteValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r)
	site, err := h.st.SiteByID(r.Context(), userID, id)
	if err != nil {
		h.writeStoreError(w, err, "site")
		return
	}

	site.Name = req.Name
	site.URL = strings.TrimRight(req.URL, "/")
	site.Username = req.Username
	site.AppPassword = req.AppPassword
	if req.IsActive != nil {
		site.IsActive = *req.IsActive
	}

	if err := h.st.UpdateSite(r.Context(), site); err != nil {
		h.writeStoreError(w, err, "site")
		return
	}
	site, err = h.st.SiteByID(r.Context(), userID, id)
	if err != nil {
		h.writeStoreError(w, err, "site")
		return
	}
	WriteSuccess(w, site, nil)
}

// DeleteSite handles DELETE /api/sites/{id}.
func (h *Handler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid site ID", nil)
		return
	}
	if err := h.st.DeleteSite(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.writeStoreError(w, err, "site")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SiteTestResponse reports a connection test result.
type SiteTestResponse struct {
	Connected bool   `json:"connected"`
	UserID    int64  `json:"wordpress_user_id,omitempty"`
	UserName  string `json:"wordpress_user_name,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TestSite handles POST /api/sites/{id}/test.
func (h *Handler) TestSite(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid site ID", nil)
		return
	}
	site, err := h.st.SiteByID(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		h.writeStoreError(w, err, "site")
		return
	}

	wpUser, err := h.publisher.TestSite(r.Context(), site)
	if err != nil {
		WriteSuccess(w, SiteTestResponse{Connected: false, Error: err.Error()}, nil)
		return
	}
	WriteSuccess(w, SiteTestResponse{
		Connected: true,
		UserID:    wpUser.ID,
		UserName:  wpUser.Name,
	}, nil)
}
