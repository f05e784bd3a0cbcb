// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic tying generation,
// post-processing, linking and publishing together.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/store"
)

// EventService records audit trail entries.
type EventService struct {
	st *store.Store
}

// NewEventService creates a new EventService.
func NewEventService(st *store.Store) *EventService {
	return &EventService{st: st}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	err := s.st.InsertEvent(ctx, model.Event{
		Level:    level,
		Category: category,
		Message:  message,
		UserID:   nullUserID,
		Metadata: metadataJSON,
	})
	if err != nil {
		slog.Error("failed to log event", "category", category, "error", err)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelError, category, message, userID, metadata)
}
