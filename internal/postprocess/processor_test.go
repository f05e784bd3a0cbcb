// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package postprocess

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing result HTML: %v", err)
	}
	return doc
}

func pillarBody(headings int) string {
	var sb strings.Builder
	sb.WriteString("<p>Intro paragraph about the topic at hand.</p>\n")
	for i := 1; i <= headings; i++ {
		fmt.Fprintf(&sb, "<h2>Section %d</h2>\n<p>Body of section %d.</p>\n", i, i)
	}
	return sb.String()
}

func TestPillarTableOfContents(t *testing.T) {
	res, err := Process(pillarBody(5), "pillar", "Best Budget Gaming Mice")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	doc := mustDoc(t, res.HTML)
	items := doc.Find("div.table-of-contents li")
	if items.Length() != 5 {
		t.Fatalf("TOC has %d items, want 5", items.Length())
	}

	// Each heading carries id="section-N" matching its list position.
	doc.Find("h2").Each(func(i int, h *goquery.Selection) {
		id, _ := h.Attr("id")
		want := fmt.Sprintf("section-%d", i+1)
		if id != want {
			t.Errorf("heading %d id = %q, want %q", i, id, want)
		}
	})
	items.Each(func(i int, li *goquery.Selection) {
		href, _ := li.Find("a").Attr("href")
		want := fmt.Sprintf("#section-%d", i+1)
		if href != want {
			t.Errorf("TOC item %d href = %q, want %q", i, href, want)
		}
	})
}

func TestTOCRequiresEnoughHeadings(t *testing.T) {
	res, err := Process(pillarBody(3), "pillar", "Topic")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Contains(res.HTML, "table-of-contents") {
		t.Error("TOC inserted with only 3 headings")
	}
}

func TestProcessIsIdempotentPerStage(t *testing.T) {
	bodies := map[string]string{
		"pillar":     pillarBody(5),
		"conversion": pillarBody(5),
		"supporting": "<p>Cleaning a mechanical keyboard takes a few steps.</p><p>Start by unplugging it.</p>",
		"authority":  "<p>The industry is shifting.</p><p>Time will tell.</p>",
		"ecosystem":  "<p>One.</p><p>Two.</p><p>Three.</p><p>Four.</p>",
		"brand":      "<p>One.</p><p>Two.</p><p>Three.</p><p>Four.</p>",
	}

	for stageKey, body := range bodies {
		first, err := Process(body, stageKey, "Test Topic Here")
		if err != nil {
			t.Fatalf("%s: first pass: %v", stageKey, err)
		}
		second, err := Process(first.HTML, stageKey, "Test Topic Here")
		if err != nil {
			t.Fatalf("%s: second pass: %v", stageKey, err)
		}

		for _, marker := range []string{"table-of-contents", "quick-verdict", "quick-answer", "discussion-prompt", "email-capture"} {
			if strings.Count(second.HTML, `class="`+marker) > 1 {
				t.Errorf("%s: block %q duplicated on second pass", stageKey, marker)
			}
		}
	}
}

func TestConversionVerdictSkippedWhenPresent(t *testing.T) {
	body := "<p>Our final verdict comes later in this piece.</p><p>More detail.</p>"
	res, err := Process(body, "conversion", "Robot Vacuums")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Contains(res.HTML, "quick-verdict") {
		t.Error("verdict box inserted despite existing verdict mention")
	}
}

func TestSupportingQuickAnswer(t *testing.T) {
	body := "<p>Mechanical keyboards need cleaning every few months.</p><p>Here is how.</p>"
	res, err := Process(body, "supporting", "Keyboard Cleaning")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	doc := mustDoc(t, res.HTML)
	box := doc.Find("div.quick-answer")
	if box.Length() != 1 {
		t.Fatalf("quick-answer boxes = %d, want 1", box.Length())
	}
	if !strings.Contains(box.Text(), "Mechanical keyboards need cleaning") {
		t.Errorf("answer box does not wrap first paragraph text: %q", box.Text())
	}
	// The original first paragraph was replaced, not kept alongside.
	if strings.Count(res.HTML, "Mechanical keyboards need cleaning") != 1 {
		t.Error("first paragraph text duplicated")
	}
}

func TestSupportingSkipsDirectAnswer(t *testing.T) {
	body := "<p>In short, yes: you should clean it monthly.</p><p>Details follow.</p>"
	res, err := Process(body, "supporting", "Keyboard Cleaning")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if strings.Contains(res.HTML, "quick-answer") {
		t.Error("quick-answer inserted although first paragraph is already a direct answer")
	}
}

func TestAuthorityDiscussionPromptPlacement(t *testing.T) {
	body := "<p>Opening.</p><p>Middle.</p><p>Closing thoughts.</p>"
	res, err := Process(body, "authority", "Drone Regulation")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	idx := strings.Index(res.HTML, "discussion-prompt")
	closing := strings.Index(res.HTML, "Closing thoughts")
	if idx == -1 {
		t.Fatal("discussion prompt missing")
	}
	if idx > closing {
		t.Error("discussion prompt not placed before the last paragraph")
	}
	if !strings.Contains(res.HTML, "Drone Regulation") {
		t.Error("discussion prompt does not mention the topic")
	}
}

func TestEcosystemEmailCapture(t *testing.T) {
	body := "<p>One paragraph.</p><p>Two paragraph.</p><p>Three paragraph.</p><p>Four paragraph.</p><p>Five paragraph.</p>"
	res, err := Process(body, "ecosystem", "Budget Drones")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	doc := mustDoc(t, res.HTML)
	if doc.Find("div.email-capture").Length() != 1 {
		t.Fatal("email capture box missing or duplicated")
	}
	// Past the 60% point: must not appear before the third paragraph.
	if strings.Index(res.HTML, "email-capture") < strings.Index(res.HTML, "Three paragraph") {
		t.Error("email capture inserted before the 60% offset point")
	}
}

func TestTitleExtraction(t *testing.T) {
	res, err := Process("<h1>My Title Rocks</h1><p>Body text.</p>", "supporting", "fallback topic")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Title != "My Title Rocks" {
		t.Errorf("Title = %q, want My Title Rocks", res.Title)
	}
	if strings.Contains(res.HTML, "<h1") {
		t.Error("final HTML still contains an h1 tag")
	}
}

func TestTitleFallsBackToH2(t *testing.T) {
	res, err := Process("<h1>Short</h1><h2>A Perfectly Sized Heading</h2><p>Body.</p>", "supporting", "topic")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Title != "A Perfectly Sized Heading" {
		t.Errorf("Title = %q, want the h2 text", res.Title)
	}
}

func TestTitleSynthesizedFromTopic(t *testing.T) {
	res, err := Process("<p>No headings here at all.</p>", "supporting", "Best Coffee Makers")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Title != "The Ultimate Guide to Best Coffee Makers" {
		t.Errorf("Title = %q", res.Title)
	}

	long := strings.Repeat("Very Long Topic ", 8)
	res, err = Process("<p>No headings.</p>", "supporting", long)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Title) > 70 {
		t.Errorf("synthesized title too long: %d chars", len(res.Title))
	}
	if !strings.HasSuffix(res.Title, "...") {
		t.Errorf("long topic title not truncated with ellipsis: %q", res.Title)
	}
}

func TestNormalization(t *testing.T) {
	body := "<p>Keep me.</p>\n\n\n\n<p>   </p><table><tr><td>x</td></tr></table><blockquote>quote</blockquote>"
	res, err := Process(body, "supporting", "topic")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if strings.Contains(res.HTML, "\n\n\n") {
		t.Error("runs of 3+ newlines not collapsed")
	}
	doc := mustDoc(t, res.HTML)
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if strings.TrimSpace(p.Text()) == "" && p.Children().Length() == 0 {
			t.Error("empty paragraph survived normalization")
		}
	})
	if !doc.Find("table").HasClass("wp-block-table") {
		t.Error("table missing wp-block-table class")
	}
	if !doc.Find("blockquote").HasClass("wp-block-quote") {
		t.Error("blockquote missing wp-block-quote class")
	}
}

func TestKeywordsExtracted(t *testing.T) {
	body := "<p>" + strings.Repeat("espresso grinder espresso grinder espresso ", 2) + "</p>"
	res, err := Process(body, "supporting", "coffee")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(res.Keywords, "espresso") {
		t.Errorf("Keywords = %q, want espresso included", res.Keywords)
	}
}
