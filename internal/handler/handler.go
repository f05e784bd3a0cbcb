// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the REST API handlers for the content
// pipeline.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/affipub/affipub/internal/linking"
	"github.com/affipub/affipub/internal/middleware"
	"github.com/affipub/affipub/internal/service"
	"github.com/affipub/affipub/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	st        *store.Store
	publisher *service.Publisher
	media     *service.MediaService
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(st *store.Store, publisher *service.Publisher, media *service.MediaService, logger *slog.Logger) *Handler {
	return &Handler{st: st, publisher: publisher, media: media, logger: logger}
}

// Routes builds the full API router. generatePerMinute limits how
// often a user may call the generation endpoint.
func (h *Handler) Routes(generatePerMinute int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(h.logger))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.WithUser)

		r.Get("/dashboard", h.Dashboard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.GenerateRateLimit(generatePerMinute))
			r.Post("/generate", h.Generate)
		})

		r.Get("/articles", h.ListArticles)
		r.Get("/articles/{id}", h.GetArticle)
		r.Put("/articles/{id}", h.UpdateArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)
		r.Post("/articles/{id}/publish", h.PublishArticle)
		r.Get("/articles/{id}/images", h.ListImages)
		r.Post("/articles/{id}/images", h.UploadImage)
		r.Delete("/articles/{id}/images/{imageID}", h.DeleteImage)
		r.Get("/articles/{id}/link-suggestions", h.LinkSuggestions)

		r.Get("/sites", h.ListSites)
		r.Post("/sites", h.CreateSite)
		r.Get("/sites/{id}", h.GetSite)
		r.Put("/sites/{id}", h.UpdateSite)
		r.Delete("/sites/{id}", h.DeleteSite)
		r.Post("/sites/{id}/test", h.TestSite)

		r.Get("/rules", h.ListRules)
		r.Post("/rules", h.CreateRule)
		r.Put("/rules/{id}", h.UpdateRule)
		r.Delete("/rules/{id}", h.DeleteRule)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)

		r.Get("/stages", h.ListStages)
		r.Get("/strategy", h.GetStrategy)
		r.Post("/strategy/advance", h.AdvanceStrategy)

		r.Get("/events", h.ListEvents)
	})

	return r
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and other metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// ParseIDParam parses the {id} URL parameter.
func ParseIDParam(r *http.Request) (int64, error) {
	return parseURLParam(r, "id")
}

func parseURLParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// writeStoreError maps a store error to a 404 or 500 response.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, entity string) {
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w, entity+" not found")
		return
	}
	h.logger.Error("store error", "entity", entity, "error", err)
	WriteInternalError(w, "Failed to access "+entity)
}

// engineFor builds a linking engine with the user's stored profile.
func (h *Handler) engineFor(r *http.Request) (*linking.Engine, int64, error) {
	userID := middleware.GetUserID(r)
	profile, err := h.st.LinkingProfileByUser(r.Context(), userID)
	if err != nil {
		return nil, userID, err
	}
	return linking.NewEngine(h.st, profile, userID), userID, nil
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.st.DB().PingContext(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "Database unreachable", nil)
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
