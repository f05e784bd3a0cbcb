// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs. The content
// pipeline itself is strictly request-driven; only housekeeping lives
// here.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/affipub/affipub/internal/store"
)

// pruneSchedule runs the event retention job once a day, off-peak.
const pruneSchedule = "30 3 * * *"

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	st            *store.Store
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance. Events older than
// retentionDays are pruned daily.
func New(st *store.Store, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		st:            st,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start begins the scheduler with the daily event retention job.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(pruneSchedule, func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries past the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.st.PruneEvents(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned events", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}
