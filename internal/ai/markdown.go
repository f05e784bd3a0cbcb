// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlTagRe = regexp.MustCompile(`<(p|h[1-6]|div|ul|ol|table|blockquote)\b`)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// EnsureHTML returns content as HTML. Responses that already contain
// block-level tags pass through unchanged; everything else is treated
// as markdown and rendered.
func EnsureHTML(content string) (string, error) {
	if htmlTagRe.MatchString(content) {
		return content, nil
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
