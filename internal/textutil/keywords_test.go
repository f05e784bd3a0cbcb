// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package textutil

import (
	"strings"
	"testing"
)

func TestStripTags(t *testing.T) {
	got := StripTags(`<p>Hello <strong>world</strong></p>`)
	if strings.Contains(got, "<") || strings.Contains(got, ">") {
		t.Errorf("StripTags left markup behind: %q", got)
	}
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "world") {
		t.Errorf("StripTags dropped text content: %q", got)
	}
}

func TestTopKeywordsFrequencyOrder(t *testing.T) {
	content := "<p>drone drone drone camera camera gimbal</p>"
	got := TopKeywords("drone reviews", content, 10)

	if len(got) == 0 {
		t.Fatal("no keywords extracted")
	}
	if got[0] != "drone" {
		t.Errorf("most frequent keyword = %q, want drone", got[0])
	}

	// camera (2) must outrank gimbal (1); reviews (1) precedes gimbal
	// because it was encountered first.
	idx := func(w string) int {
		for i, k := range got {
			if k == w {
				return i
			}
		}
		return -1
	}
	if idx("camera") > idx("gimbal") && idx("gimbal") != -1 {
		t.Errorf("camera ranked below gimbal: %v", got)
	}
	if ri, gi := idx("reviews"), idx("gimbal"); ri == -1 || gi == -1 || ri > gi {
		t.Errorf("tie not resolved by first-seen order: %v", got)
	}
}

func TestTopKeywordsFiltering(t *testing.T) {
	got := TopKeywords("the and was", "<p>for with cat dog bee</p>", 20)

	for _, k := range got {
		if len(k) < 4 {
			t.Errorf("keyword %q shorter than 4 characters", k)
		}
		if _, stop := linkingStopWords[k]; stop {
			t.Errorf("stop word %q not excluded", k)
		}
	}
}

func TestTopKeywordsLimit(t *testing.T) {
	var sb strings.Builder
	for _, w := range []string{
		"alpha", "bravo", "charlie", "delta", "echoes", "foxtrot",
		"golfing", "hotel", "india", "juliet", "kilos", "limas",
		"mikes", "november", "oscar", "papa", "quebec", "romeo",
		"sierra", "tango", "uniform", "victor", "whiskey", "xray",
	} {
		sb.WriteString(w + " ")
	}
	got := TopKeywords("", sb.String(), 20)
	if len(got) != 20 {
		t.Errorf("len = %d, want 20", len(got))
	}
}

func TestMetaKeywords(t *testing.T) {
	// "widget" x4 and "budget" x3 pass the freq>2 bar; "mouse" x2 does not.
	html := "<p>widget widget widget widget budget budget budget mouse mouse</p>"
	got := MetaKeywords(html)

	if !strings.Contains(got, "widget") || !strings.Contains(got, "budget") {
		t.Errorf("MetaKeywords = %q, want widget and budget", got)
	}
	if strings.Contains(got, "mouse") {
		t.Errorf("MetaKeywords kept a word with frequency 2: %q", got)
	}
	if !strings.HasPrefix(got, "widget") {
		t.Errorf("MetaKeywords not ranked by frequency: %q", got)
	}
}

func TestMetaKeywordsEmpty(t *testing.T) {
	if got := MetaKeywords("<p>one two</p>"); got != "" {
		t.Errorf("MetaKeywords on sparse text = %q, want empty", got)
	}
}
