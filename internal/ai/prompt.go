// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"fmt"
	"strings"

	"github.com/affipub/affipub/internal/stage"
)

const basePersona = "You are an experienced affiliate marketing content writer. " +
	"You write engaging, well-structured blog posts in clean HTML using h2 and h3 " +
	"headings, short paragraphs, lists and tables where they help the reader. " +
	"Never include an h1 heading; the post title is handled separately. " +
	"Recommendations must be honest and specific."

// Caps applied to the optional user prompt sections.
const (
	maxAffiliateLinks = 5
	maxRelatedTitles  = 5
)

// GenerateRequest carries everything the prompt builder needs for one
// article.
type GenerateRequest struct {
	Topic          string
	Instructions   string
	AffiliateLinks []string
	RelatedTitles  []string
}

// SystemPrompt combines the base writer persona with the stage's own
// prompt and word-count targets.
func SystemPrompt(st stage.Stage) string {
	var sb strings.Builder
	sb.WriteString(basePersona)
	sb.WriteString("\n\n")
	sb.WriteString(st.SystemPrompt)
	fmt.Fprintf(&sb, "\n\nTarget length: %d to %d words.", st.WordCountMin, st.WordCountTarget)
	if st.FocusKeywords != "" {
		fmt.Fprintf(&sb, " Keyword focus: %s.", st.FocusKeywords)
	}
	return sb.String()
}

// UserPrompt renders the per-article request: the topic, any custom
// instructions, up to 5 affiliate links to weave in, and up to 5
// already-published titles the new post may reference.
func UserPrompt(req GenerateRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a blog post about: %s\n", req.Topic)

	if req.Instructions != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions:\n%s\n", req.Instructions)
	}

	links := req.AffiliateLinks
	if len(links) > maxAffiliateLinks {
		links = links[:maxAffiliateLinks]
	}
	if len(links) > 0 {
		sb.WriteString("\nNaturally incorporate these affiliate links where relevant:\n")
		for i, l := range links {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, l)
		}
	}

	titles := req.RelatedTitles
	if len(titles) > maxRelatedTitles {
		titles = titles[:maxRelatedTitles]
	}
	if len(titles) > 0 {
		sb.WriteString("\nExisting articles on this blog you may mention by title:\n")
		for i, t := range titles {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
		}
	}

	return sb.String()
}
