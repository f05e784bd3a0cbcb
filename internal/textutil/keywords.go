// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package textutil provides the keyword extraction and text helpers
// shared by the post-processor and the linking engine. The two callers
// use deliberately different parameters (token length, ranking cutoff,
// stop-word sets), so each gets its own entry point.
package textutil

import (
	"regexp"
	"sort"
	"strings"
)

var (
	tagRegex  = regexp.MustCompile(`<[^>]+>`)
	wordRegex = regexp.MustCompile(`[a-z]+`)
)

// linkingStopWords is the small stop-word set used when scoring
// candidate articles for internal links.
var linkingStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "was": {},
	"are": {}, "were": {}, "been": {}, "be": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "may": {}, "might": {}, "must": {}, "can": {},
}

// metaStopWords is the wider set used when extracting display keywords
// for a finished article.
var metaStopWords = map[string]struct{}{
	"this": {}, "that": {}, "these": {}, "those": {}, "with": {},
	"from": {}, "have": {}, "has": {}, "had": {}, "been": {}, "were": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "about": {},
	"after": {}, "before": {}, "between": {}, "into": {}, "through": {},
	"during": {}, "above": {}, "below": {}, "over": {}, "under": {},
	"again": {}, "further": {}, "then": {}, "once": {}, "here": {},
	"there": {}, "when": {}, "where": {}, "what": {}, "which": {},
	"while": {}, "your": {}, "their": {}, "them": {}, "they": {},
	"more": {}, "most": {}, "other": {}, "some": {}, "such": {},
	"only": {}, "same": {}, "than": {}, "very": {}, "just": {},
	"also": {}, "because": {}, "does": {}, "doing": {}, "each": {},
	"every": {}, "both": {}, "being": {}, "make": {}, "made": {},
	"like": {}, "well": {}, "even": {}, "much": {}, "many": {},
}

// StripTags removes HTML tags from s, leaving the text content.
func StripTags(s string) string {
	return tagRegex.ReplaceAllString(s, " ")
}

// wordCount holds a token's frequency and first-seen position so
// frequency ties resolve in encounter order.
type wordCount struct {
	word  string
	count int
	first int
}

func rankWords(text string, minLen int, stop map[string]struct{}) []wordCount {
	words := wordRegex.FindAllString(strings.ToLower(StripTags(text)), -1)

	counts := make(map[string]*wordCount)
	order := make([]*wordCount, 0, 64)
	for i, w := range words {
		if len(w) < minLen {
			continue
		}
		if _, skip := stop[w]; skip {
			continue
		}
		wc, ok := counts[w]
		if !ok {
			wc = &wordCount{word: w, first: i}
			counts[w] = wc
			order = append(order, wc)
		}
		wc.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	out := make([]wordCount, len(order))
	for i, wc := range order {
		out[i] = *wc
	}
	return out
}

// TopKeywords extracts up to limit keywords from topic and content for
// relevance scoring: alphabetic tokens of at least 4 characters, stop
// words removed, ranked by descending frequency.
func TopKeywords(topic, content string, limit int) []string {
	ranked := rankWords(topic+" "+content, 4, linkingStopWords)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, wc := range ranked {
		out[i] = wc.word
	}
	return out
}

// MetaKeywords extracts the display keyword list stored on a finished
// article: tokens of at least 4 characters occurring more than twice,
// top 10, comma-joined.
func MetaKeywords(html string) string {
	ranked := rankWords(html, 4, metaStopWords)

	kept := make([]string, 0, 10)
	for _, wc := range ranked {
		if wc.count <= 2 {
			continue
		}
		kept = append(kept, wc.word)
		if len(kept) == 10 {
			break
		}
	}
	return strings.Join(kept, ", ")
}
