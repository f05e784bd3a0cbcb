// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryGenerate = "generate"
	EventCategoryPublish  = "publish"
	EventCategoryLinking  = "linking"
	EventCategorySite     = "site"
	EventCategoryMedia    = "media"
	EventCategorySystem   = "system"
)

// Event is an audit log entry. WARN and ERROR slog records are also
// mirrored here by the logging handler.
type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id,omitempty"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}
