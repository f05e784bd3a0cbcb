// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package linking

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/affipub/affipub/internal/textutil"
)

// InsertedLink records one link placed during an insertion pass, in
// insertion order.
type InsertedLink struct {
	Type    string `json:"type"` // "rule" or "auto"
	Keyword string `json:"keyword"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

// InsertLink rewrites content so the first case-insensitive occurrence
// of anchorText outside any existing anchor becomes a link to url. The
// second return value reports whether a replacement happened. Anchor
// text already wrapped in an <a> element anywhere in the content is
// left alone, so links are never nested or duplicated.
func (e *Engine) InsertLink(content, anchorText, url, title string) (string, bool) {
	return e.insertLink(content, anchorText, url, title, e.profile.VaryAnchorText)
}

func (e *Engine) insertLink(content, anchorText, url, title string, vary bool) (string, bool) {
	if strings.TrimSpace(anchorText) == "" {
		return content, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content, false
	}
	body := doc.Find("body")
	if len(body.Nodes) == 0 {
		return content, false
	}

	linked := false
	body.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(a.Text()), strings.TrimSpace(anchorText)) {
			linked = true
			return false
		}
		return true
	})
	if linked {
		return content, false
	}

	display := anchorText
	if vary && e.rng.Float64() > 0.5 {
		variations := []string{
			"learn more about " + anchorText,
			"see our guide on " + anchorText,
			"check out " + anchorText,
			anchorText,
		}
		display = variations[e.rng.Intn(len(variations))]
	}

	anchorRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(anchorText))
	if !insertAnchor(body.Nodes[0], anchorRe, display, url, title) {
		return content, false
	}

	out, err := body.Html()
	if err != nil {
		return content, false
	}
	return out, true
}

// insertAnchor walks the tree in document order, skips subtrees of
// existing anchors, and wraps the first text match in a new <a> node.
func insertAnchor(n *html.Node, anchorRe *regexp.Regexp, display, url, title string) bool {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		return false
	}

	if n.Type == html.TextNode {
		loc := anchorRe.FindStringIndex(n.Data)
		if loc == nil {
			return false
		}

		link := &html.Node{
			Type:     html.ElementNode,
			Data:     "a",
			DataAtom: atom.A,
			Attr: []html.Attribute{
				{Key: "href", Val: url},
				{Key: "title", Val: title},
				{Key: "class", Val: "internal-link"},
			},
		}
		link.AppendChild(&html.Node{Type: html.TextNode, Data: display})

		parent := n.Parent
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: n.Data[:loc[0]]}, n)
		parent.InsertBefore(link, n)
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: n.Data[loc[1]:]}, n)
		parent.RemoveChild(n)
		return true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if insertAnchor(c, anchorRe, display, url, title) {
			return true
		}
	}
	return false
}

// AutoInsertLinks rewrites content with internal links in two phases:
// active manual rules by descending priority (each capped at its
// per-article max usage for this pass), then relevance-scored articles
// up to the profile's link budget. The returned records describe every
// insertion in order. Disabled auto-linking or an empty candidate set
// returns the content unchanged.
func (e *Engine) AutoInsertLinks(ctx context.Context, content, topic string, currentID int64) (string, []InsertedLink, error) {
	if !e.profile.AutoLinkEnabled {
		return content, nil, nil
	}

	relevant, err := e.FindRelevantArticles(ctx, topic, content, currentID, 0)
	if err != nil {
		return content, nil, err
	}
	if len(relevant) == 0 {
		return content, nil, nil
	}

	modified := content
	var inserted []InsertedLink

	// Usage counters are scoped to this single pass.
	usage := make(map[int64]int64)

	rules, err := e.repo.ActiveRules(ctx, e.userID)
	if err != nil {
		return content, nil, err
	}
	for _, rt := range rules {
		if usage[rt.Rule.ID] >= rt.Rule.MaxUsage {
			continue
		}
		if rt.TargetURL == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(modified), strings.ToLower(rt.Rule.Keyword)) {
			continue
		}

		var ok bool
		modified, ok = e.insertLink(modified, rt.Rule.Keyword, rt.TargetURL, rt.TargetTitle, e.profile.VaryAnchorText)
		if ok {
			usage[rt.Rule.ID]++
			inserted = append(inserted, InsertedLink{
				Type:    "rule",
				Keyword: rt.Rule.Keyword,
				URL:     rt.TargetURL,
				Title:   rt.TargetTitle,
			})
		}
	}

	linksAdded := len(inserted)
	budget := int(e.profile.MaxInternalLinks)
	contextKeywords := textutil.TopKeywords(topic, content, 20)

	for _, sc := range relevant {
		if linksAdded >= budget {
			break
		}
		if sc.Article.WordPressURL == "" {
			continue
		}

		for _, anchor := range e.GenerateAnchorTexts(sc.Article, contextKeywords) {
			if !strings.Contains(strings.ToLower(modified), strings.ToLower(anchor)) {
				continue
			}
			var ok bool
			modified, ok = e.insertLink(modified, anchor, sc.Article.WordPressURL, sc.Article.Title, e.profile.VaryAnchorText)
			if ok {
				linksAdded++
				inserted = append(inserted, InsertedLink{
					Type:    "auto",
					Keyword: anchor,
					URL:     sc.Article.WordPressURL,
					Title:   sc.Article.Title,
				})
				break
			}
		}
	}

	return modified, inserted, nil
}
