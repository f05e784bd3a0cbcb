// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that mirrors WARN and
// ERROR records into the database-backed event log for auditing.
package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes WARN and ERROR level logs to the event log.
type EventLogHandler struct {
	inner slog.Handler
	st    *store.Store
	level slog.Level // minimum level to mirror into the event log
}

// NewEventLogHandler creates an EventLogHandler that wraps the given handler.
// Logs at WARN level and above are written to both the wrapped handler and
// the event log.
func NewEventLogHandler(inner slog.Handler, st *store.Store) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, st, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates an EventLogHandler with a custom
// minimum mirror level.
func NewEventLogHandlerWithLevel(inner slog.Handler, st *store.Store, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, st: st, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), st: h.st, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), st: h.st, level: h.level}
}

func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	// A background context keeps the event even when the request
	// context is already cancelled.
	_ = h.st.InsertEvent(context.Background(), model.Event{
		Level:    slogLevelToEventLevel(r.Level),
		Category: extractCategory(r),
		Message:  r.Message,
		Metadata: extractMetadata(r),
	})
}

func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// extractCategory looks for a "category" attribute, falling back to
// inference from the message text.
func extractCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "generat") || strings.Contains(msg, "claude"):
		return model.EventCategoryGenerate
	case strings.Contains(msg, "publish") || strings.Contains(msg, "wordpress"):
		return model.EventCategoryPublish
	case strings.Contains(msg, "link"):
		return model.EventCategoryLinking
	case strings.Contains(msg, "site"):
		return model.EventCategorySite
	case strings.Contains(msg, "image") || strings.Contains(msg, "media") || strings.Contains(msg, "upload"):
		return model.EventCategoryMedia
	default:
		return model.EventCategorySystem
	}
}

// extractMetadata collects all log attributes into a JSON string.
func extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true // already extracted
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
