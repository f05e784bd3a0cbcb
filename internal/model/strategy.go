// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// ContentStrategy tracks a user's position in the six-stage content
// plan along with per-stage article counters.
type ContentStrategy struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	CurrentStage string    `json:"current_stage"`
	StageCounts  string    `json:"stage_counts"` // JSON object {stage_id: count}
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
