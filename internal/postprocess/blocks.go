// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package postprocess

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Marker substrings guarding each structural block. Matching is
// case-insensitive against the unmodified input.
const (
	markerTOC        = "table-of-contents"
	markerVerdict    = "verdict"
	markerAnswer     = "quick-answer"
	markerDiscussion = "discussion-prompt"
	markerCapture    = "email-capture"
)

// answerPhrases mark a first paragraph that already reads as a direct
// answer, making a quick-answer box redundant.
var answerPhrases = []string{
	"the answer is",
	"in short",
	"simply put",
	"to summarize",
	"long story short",
}

// insertTOC builds a table of contents from the h2/h3 headings and
// places it after the first paragraph. Headings are rewritten to carry
// id="section-N" anchors in document order. Skipped when fewer than
// four headings exist or a TOC is already present.
func insertTOC(body *goquery.Selection, rawHTML string) {
	if hasMarker(rawHTML, markerTOC) {
		return
	}

	headings := body.Find("h2, h3")
	if headings.Length() <= tocMinHeadings {
		return
	}

	var items strings.Builder
	headings.Each(func(i int, h *goquery.Selection) {
		id := fmt.Sprintf("section-%d", i+1)
		h.SetAttr("id", id)
		items.WriteString(fmt.Sprintf(
			`<li style="margin:4px 0;"><a href="#%s" style="color:#0073aa;text-decoration:none;">%s</a></li>`,
			id, strings.TrimSpace(h.Text())))
		items.WriteString("\n")
	})

	toc := fmt.Sprintf(`<div class="table-of-contents" style="background:#f8f9fa;border:1px solid #e0e0e0;border-radius:6px;padding:16px 24px;margin:24px 0;">
<p style="font-weight:bold;margin:0 0 8px 0;">Table of Contents</p>
<ul style="list-style:disc;margin:0;padding-left:20px;">
%s</ul>
</div>`, items.String())

	insertAfterFirstParagraph(body, toc)
}

// insertVerdictBox places a quick-verdict summary after the first
// paragraph of conversion content. Skipped when the word "verdict"
// already appears anywhere in the content.
func insertVerdictBox(body *goquery.Selection, rawHTML, topic string) {
	if hasMarker(rawHTML, markerVerdict) {
		return
	}

	box := fmt.Sprintf(`<div class="quick-verdict" style="background:#fff8e6;border-left:4px solid #ff6b35;border-radius:4px;padding:16px 20px;margin:24px 0;">
<p style="font-weight:bold;margin:0 0 6px 0;">Our Verdict</p>
<p style="margin:0;">Short on time? Our top pick for %s is covered in the comparison below, with the full reasoning in each section.</p>
</div>`, topic)

	insertAfterFirstParagraph(body, box)
}

// insertQuickAnswer wraps the first paragraph of supporting content in
// an answer box, replacing that paragraph. Skipped when a quick-answer
// block exists or the paragraph already reads as a direct answer.
func insertQuickAnswer(body *goquery.Selection, rawHTML string) {
	if hasMarker(rawHTML, markerAnswer) {
		return
	}

	first := body.Find("p").First()
	if first.Length() == 0 {
		return
	}

	text := strings.TrimSpace(first.Text())
	if isDirectAnswer(text) {
		return
	}

	box := fmt.Sprintf(`<div class="quick-answer" style="background:#e8f5e9;border:1px solid #c8e6c9;border-radius:6px;padding:16px 20px;margin:24px 0;">
<p style="margin:0;"><strong>Quick Answer:</strong> %s</p>
</div>`, text)

	first.ReplaceWithHtml(box)
}

func isDirectAnswer(text string) bool {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "yes,") || strings.HasPrefix(lower, "no,") {
		return true
	}
	for _, phrase := range answerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// insertDiscussionPrompt places a comment prompt immediately before
// the last paragraph of authority content.
func insertDiscussionPrompt(body *goquery.Selection, rawHTML, topic string) {
	if hasMarker(rawHTML, markerDiscussion) {
		return
	}

	last := body.Find("p").Last()
	if last.Length() == 0 {
		return
	}

	box := fmt.Sprintf(`<div class="discussion-prompt" style="background:#e3f2fd;border:1px solid #bbdefb;border-radius:6px;padding:16px 20px;margin:24px 0;">
<p style="font-weight:bold;margin:0 0 6px 0;">Join the Discussion</p>
<p style="margin:0;">What's been your experience with %s? Agree or disagree with this take? Share your thoughts in the comments below.</p>
</div>`, topic)

	last.BeforeHtml(box)
}

// insertEmailCapture places a conversion box after the next paragraph
// boundary following the 60%-by-character-offset point of the document.
func insertEmailCapture(body *goquery.Selection, rawHTML string) {
	if hasMarker(rawHTML, markerCapture) {
		return
	}

	paragraphs := body.Find("p")
	if paragraphs.Length() == 0 {
		return
	}

	total := 0
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if html, err := goquery.OuterHtml(p); err == nil {
			total += len(html)
		}
	})
	threshold := (total * 6) / 10

	box := `<div class="email-capture" style="background:#1a1a2e;color:#ffffff;border-radius:8px;padding:24px;margin:32px 0;text-align:center;">
<p style="font-weight:bold;font-size:1.2em;margin:0 0 8px 0;">Want more like this?</p>
<p style="margin:0;">Join the newsletter for exclusive guides, insider picks and deals we only share by email.</p>
</div>`

	offset := 0
	target := paragraphs.Last()
	paragraphs.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if html, err := goquery.OuterHtml(p); err == nil {
			offset += len(html)
		}
		if offset >= threshold {
			target = p
			return false
		}
		return true
	})

	target.AfterHtml(box)
}

// insertAfterFirstParagraph places block after the first paragraph, or
// prepends it when the content has no paragraphs at all.
func insertAfterFirstParagraph(body *goquery.Selection, block string) {
	first := body.Find("p").First()
	if first.Length() == 0 {
		body.PrependHtml(block)
		return
	}
	first.AfterHtml(block)
}
