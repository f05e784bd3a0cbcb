// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/affipub/affipub/internal/imaging"
	"github.com/affipub/affipub/internal/middleware"
)

// UploadImage handles POST /api/articles/{id}/images. The image is
// sent as a multipart form with the file under "file".
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	articleID, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file field", nil)
		return
	}
	defer func() { _ = file.Close() }()

	img, err := h.media.AttachImage(r.Context(), middleware.GetUserID(r), articleID, header.Filename, header.Size, file)
	if err != nil {
		h.writeMediaError(w, err)
		return
	}
	WriteCreated(w, img)
}

// ListImages handles GET /api/articles/{id}/images.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	articleID, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}

	images, err := h.media.Images(r.Context(), middleware.GetUserID(r), articleID)
	if err != nil {
		h.writeStoreError(w, err, "article")
		return
	}
	WriteSuccess(w, images, nil)
}

// DeleteImage handles DELETE /api/articles/{id}/images/{imageID}.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	articleID, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}
	imageID, err := parseURLParam(r, "imageID")
	if err != nil {
		WriteBadRequest(w, "Invalid image ID", nil)
		return
	}

	// Ownership check before touching the image row.
	if _, err := h.st.ArticleByID(r.Context(), middleware.GetUserID(r), articleID); err != nil {
		h.writeStoreError(w, err, "article")
		return
	}
	if err := h.st.DeleteImage(r.Context(), articleID, imageID); err != nil {
		h.writeStoreError(w, err, "image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeMediaError distinguishes validation rejections from store
// failures on the upload path.
func (h *Handler) writeMediaError(w http.ResponseWriter, err error) {
	// Not-found from the ownership check maps to 404, everything else
	// on this path is a client-side upload problem.
	if isNotFound(err) {
		WriteNotFound(w, "Article not found")
		return
	}
	WriteValidationError(w, map[string]string{"file": err.Error()})
}
