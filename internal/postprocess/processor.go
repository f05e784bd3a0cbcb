// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package postprocess transforms raw model output into the HTML stored
// on an article. Transformations run over a parsed node tree rather
// than raw string replacement, but each structural block keeps the
// exact marker-substring skip condition, so running the processor on
// its own output is a no-op.
package postprocess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/affipub/affipub/internal/stage"
	"github.com/affipub/affipub/internal/textutil"
)

// Title length bounds for an extracted heading.
const (
	minTitleLen = 10
	maxTitleLen = 70
)

// tocMinHeadings is the number of h2/h3 headings required before a
// table of contents is worth inserting.
const tocMinHeadings = 3

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Result is the outcome of post-processing one article body.
type Result struct {
	HTML     string
	Title    string
	Keywords string
}

// Process applies the stage-appropriate structural block to rawHTML,
// extracts the title and display keywords, and normalizes the output.
// Unknown stage keys get normalization and title handling only.
func Process(rawHTML, stageKey, topic string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Result{}, fmt.Errorf("parsing content: %w", err)
	}
	body := doc.Find("body")

	title := extractTitle(body, topic)

	// The CMS renders the stored title itself; level-1 headings never
	// survive into the final HTML.
	body.Find("h1").Remove()

	s, _ := stage.Lookup(stageKey)
	applyStageBlock(body, rawHTML, s.Key, topic)

	normalize(body)

	html, err := body.Html()
	if err != nil {
		return Result{}, fmt.Errorf("serializing content: %w", err)
	}
	html = multiNewline.ReplaceAllString(html, "\n\n")
	html = strings.TrimSpace(html)

	return Result{
		HTML:     html,
		Title:    title,
		Keywords: textutil.MetaKeywords(rawHTML),
	}, nil
}

// hasMarker reports whether the original content already carries a
// structural block, detected by a case-insensitive substring check.
func hasMarker(rawHTML, marker string) bool {
	return strings.Contains(strings.ToLower(rawHTML), marker)
}

func applyStageBlock(body *goquery.Selection, rawHTML, stageKey, topic string) {
	switch stageKey {
	case stage.KeyPillar:
		insertTOC(body, rawHTML)
	case stage.KeyConversion:
		insertTOC(body, rawHTML)
		insertVerdictBox(body, rawHTML, topic)
	case stage.KeySupporting:
		insertQuickAnswer(body, rawHTML)
	case stage.KeyAuthority:
		insertDiscussionPrompt(body, rawHTML, topic)
	case stage.KeyEcosystem, stage.KeyBrand:
		insertEmailCapture(body, rawHTML)
	}
}

// extractTitle pulls the article title out of the body: the first h1
// if its length fits, then the first h2, otherwise a title synthesized
// from the topic.
func extractTitle(body *goquery.Selection, topic string) string {
	for _, tag := range []string{"h1", "h2"} {
		heading := strings.TrimSpace(body.Find(tag).First().Text())
		if len(heading) >= minTitleLen && len(heading) <= maxTitleLen {
			return heading
		}
	}
	return synthesizeTitle(topic)
}

func synthesizeTitle(topic string) string {
	t := strings.TrimSpace(topic)
	if t == "" {
		return "Untitled Article"
	}
	const prefix = "The Ultimate Guide to "
	if len(prefix)+len(t) <= maxTitleLen {
		return prefix + t
	}
	if len(t) > 60 {
		return t[:57] + "..."
	}
	return t
}

// normalize removes empty paragraphs and tags tables and blockquotes
// with the presentation classes WordPress themes expect.
func normalize(body *goquery.Selection) {
	body.Find("p").Each(func(_ int, p *goquery.Selection) {
		if strings.TrimSpace(p.Text()) == "" && p.Children().Length() == 0 {
			p.Remove()
		}
	})

	body.Find("table").Each(func(_ int, t *goquery.Selection) {
		addClass(t, "wp-block-table")
	})
	body.Find("blockquote").Each(func(_ int, q *goquery.Selection) {
		addClass(q, "wp-block-quote")
	})
}

func addClass(s *goquery.Selection, class string) {
	if !s.HasClass(class) {
		s.AddClass(class)
	}
}
