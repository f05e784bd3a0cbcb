// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package stage holds the fixed six-stage content taxonomy. The table
// is static reference data embedded at build time; it is never mutated
// at runtime.
package stage

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Stage keys, in strategy order.
const (
	KeyPillar     = "pillar"
	KeyConversion = "conversion"
	KeySupporting = "supporting"
	KeyAuthority  = "authority"
	KeyEcosystem  = "ecosystem"
	KeyBrand      = "brand"
)

//go:embed stages.yaml
var stagesFS embed.FS

// Stage describes one content archetype: its word-count targets,
// keyword focus, style descriptor and system prompt template.
type Stage struct {
	ID                string `yaml:"id" json:"id"`
	Key               string `yaml:"key" json:"key"`
	Name              string `yaml:"name" json:"name"`
	Description       string `yaml:"description" json:"description"`
	WordCountMin      int    `yaml:"word_count_min" json:"word_count_min"`
	WordCountTarget   int    `yaml:"word_count_target" json:"word_count_target"`
	FocusKeywords     string `yaml:"focus_keywords" json:"focus_keywords"`
	ContentStyle      string `yaml:"content_style" json:"content_style"`
	MonetizationFocus string `yaml:"monetization_focus" json:"monetization_focus"`
	SystemPrompt      string `yaml:"system_prompt" json:"-"`
}

var (
	all   []Stage
	byKey map[string]Stage
)

func init() {
	data, err := stagesFS.ReadFile("stages.yaml")
	if err != nil {
		panic(fmt.Sprintf("stage: reading embedded stages.yaml: %v", err))
	}

	var doc struct {
		Stages []Stage `yaml:"stages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		panic(fmt.Sprintf("stage: parsing stages.yaml: %v", err))
	}

	all = doc.Stages
	byKey = make(map[string]Stage, len(all))
	for _, s := range all {
		byKey[s.Key] = s
		byKey[s.ID] = s
	}
}

// All returns the six stages in strategy order.
func All() []Stage {
	out := make([]Stage, len(all))
	copy(out, all)
	return out
}

// Lookup returns the stage for a key ("pillar") or id ("stage1").
func Lookup(key string) (Stage, bool) {
	s, ok := byKey[key]
	return s, ok
}

// Next returns the stage that follows s in strategy order, or s itself
// if it is the last stage.
func Next(key string) (Stage, bool) {
	for i, s := range all {
		if s.Key == key || s.ID == key {
			if i+1 < len(all) {
				return all[i+1], true
			}
			return s, true
		}
	}
	return Stage{}, false
}
