// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "affipub-log-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	_ = f.Close()

	db, err := store.NewDB(f.Name())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store.New(db)
}

func testLogger(st *store.Store) *slog.Logger {
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewEventLogHandler(inner, st))
}

func TestWarnMirroredToEventLog(t *testing.T) {
	st := testStore(t)
	logger := testLogger(st)

	logger.Warn("publish attempt failed", "category", model.EventCategoryPublish, "article_id", "7")

	events, err := st.RecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelWarning {
		t.Errorf("Level = %q, want warning", e.Level)
	}
	if e.Category != model.EventCategoryPublish {
		t.Errorf("Category = %q, want publish", e.Category)
	}
	if e.Metadata != `{"article_id":"7"}` {
		t.Errorf("Metadata = %q", e.Metadata)
	}
}

func TestInfoNotMirrored(t *testing.T) {
	st := testStore(t)
	logger := testLogger(st)

	logger.Info("routine message")

	events, err := st.RecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("info record mirrored: %+v", events)
	}
}

func TestErrorLevel(t *testing.T) {
	st := testStore(t)
	logger := testLogger(st)

	logger.Error("generation crashed")

	events, _ := st.RecentEvents(context.Background(), 10)
	if len(events) != 1 || events[0].Level != model.EventLevelError {
		t.Fatalf("events = %+v", events)
	}
}

func TestCategoryInference(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"claude request timed out", model.EventCategoryGenerate},
		{"wordpress returned 401", model.EventCategoryPublish},
		{"auto-linking pass skipped", model.EventCategoryLinking},
		{"site connection test failed", model.EventCategorySite},
		{"image upload rejected", model.EventCategoryMedia},
		{"unexpected shutdown", model.EventCategorySystem},
	}

	for _, tt := range tests {
		st := testStore(t)
		logger := testLogger(st)
		logger.Warn(tt.msg)

		events, _ := st.RecentEvents(context.Background(), 1)
		if len(events) != 1 {
			t.Fatalf("%q: no event recorded", tt.msg)
		}
		if events[0].Category != tt.want {
			t.Errorf("%q: category = %q, want %q", tt.msg, events[0].Category, tt.want)
		}
	}
}

func TestMetadataEscaping(t *testing.T) {
	st := testStore(t)
	logger := testLogger(st)

	logger.Warn("publish failed", "reason", `server said "no"`)

	events, _ := st.RecentEvents(context.Background(), 1)
	if len(events) != 1 {
		t.Fatal("no event recorded")
	}
	if events[0].Metadata != `{"reason":"server said \"no\""}` {
		t.Errorf("Metadata = %q", events[0].Metadata)
	}
}

func TestWithAttrsPreservesMirroring(t *testing.T) {
	st := testStore(t)
	logger := testLogger(st).With("component", "publisher")

	logger.Warn("retry exhausted")

	events, _ := st.RecentEvents(context.Background(), 1)
	if len(events) != 1 {
		t.Fatal("derived logger lost event mirroring")
	}
}
