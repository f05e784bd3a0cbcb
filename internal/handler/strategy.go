// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/affipub/affipub/internal/middleware"
	"github.com/affipub/affipub/internal/stage"
)

// ListStages handles GET /api/stages.
func (h *Handler) ListStages(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, stage.All(), nil)
}

// StrategyResponse represents the content strategy in API responses.
type StrategyResponse struct {
	CurrentStage stage.Stage      `json:"current_stage"`
	StageCounts  map[string]int64 `json:"stage_counts"`
}

func (h *Handler) strategyResponse(w http.ResponseWriter, r *http.Request, userID int64) {
	cs, err := h.st.StrategyByUser(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err, "strategy")
		return
	}

	current, ok := stage.Lookup(cs.CurrentStage)
	if !ok {
		h.logger.Error("stored strategy has unknown stage", "stage", cs.CurrentStage)
		WriteInternalError(w, "Stored strategy is invalid")
		return
	}

	counts := map[string]int64{}
	if cs.StageCounts != "" {
		_ = json.Unmarshal([]byte(cs.StageCounts), &counts)
	}

	WriteSuccess(w, StrategyResponse{CurrentStage: current, StageCounts: counts}, nil)
}

// GetStrategy handles GET /api/strategy.
func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	h.strategyResponse(w, r, middleware.GetUserID(r))
}

// AdvanceStrategy handles POST /api/strategy/advance, moving the
// strategy to the next stage. The last stage stays put.
func (h *Handler) AdvanceStrategy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	cs, err := h.st.StrategyByUser(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err, "strategy")
		return
	}
	next, ok := stage.Next(cs.CurrentStage)
	if !ok {
		h.logger.Error("stored strategy has unknown stage", "stage", cs.CurrentStage)
		WriteInternalError(w, "Stored strategy is invalid")
		return
	}
	if next.Key != cs.CurrentStage {
		if err := h.st.SetStrategyStage(r.Context(), userID, next.Key); err != nil {
			h.writeStoreError(w, err, "strategy")
			return
		}
	}

	h.strategyResponse(w, r, userID)
}
