// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/stage"
)

func scanStrategy(row sq.RowScanner) (model.ContentStrategy, error) {
	var cs model.ContentStrategy
	err := row.Scan(&cs.ID, &cs.UserID, &cs.CurrentStage, &cs.StageCounts,
		&cs.CreatedAt, &cs.UpdatedAt)
	return cs, err
}

// StrategyByUser returns the user's content strategy, creating one at
// the first stage on first access.
func (s *Store) StrategyByUser(ctx context.Context, userID int64) (model.ContentStrategy, error) {
	row := s.sb.Select("id", "user_id", "current_stage", "stage_counts", "created_at", "updated_at").
		From("content_strategies").
		Where(sq.Eq{"user_id": userID}).
		RunWith(s.db).QueryRowContext(ctx)
	cs, err := scanStrategy(row)
	if err == nil {
		return cs, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.ContentStrategy{}, fmt.Errorf("loading strategy: %w", err)
	}

	now := time.Now().UTC()
	cs = model.ContentStrategy{
		UserID:       userID,
		CurrentStage: stage.KeyPillar,
		StageCounts:  "{}",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.sb.Insert("content_strategies").
		Columns("user_id", "current_stage", "stage_counts", "created_at", "updated_at").
		Values(cs.UserID, cs.CurrentStage, cs.StageCounts, now, now).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.ContentStrategy{}, fmt.Errorf("creating strategy: %w", err)
	}
	cs.ID, err = res.LastInsertId()
	if err != nil {
		return model.ContentStrategy{}, fmt.Errorf("creating strategy: %w", err)
	}
	return cs, nil
}

// SetStrategyStage moves the user's strategy to the given stage key.
func (s *Store) SetStrategyStage(ctx context.Context, userID int64, stageKey string) error {
	res, err := s.sb.Update("content_strategies").
		Set("current_stage", stageKey).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("setting strategy stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementStageCount bumps the per-stage article counter for one
// published article.
func (s *Store) IncrementStageCount(ctx context.Context, userID int64, stageKey string) error {
	cs, err := s.StrategyByUser(ctx, userID)
	if err != nil {
		return err
	}

	counts := map[string]int64{}
	if cs.StageCounts != "" {
		if err := json.Unmarshal([]byte(cs.StageCounts), &counts); err != nil {
			counts = map[string]int64{}
		}
	}
	counts[stageKey]++

	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encoding stage counts: %w", err)
	}

	_, err = s.sb.Update("content_strategies").
		Set("stage_counts", string(raw)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": userID}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("saving stage counts: %w", err)
	}
	return nil
}
