// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sanitize defines the HTML sanitization policies applied to
// article fields before persistence. Sanitization happens exactly once,
// on write; stored HTML is served as-is.
package sanitize

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// wordsPerMinute is the reading speed used for read-time estimates.
const wordsPerMinute = 200

var (
	contentPolicy = buildContentPolicy()
	excerptPolicy = buildExcerptPolicy()
	plainPolicy   = bluemonday.StrictPolicy()

	colorRe    = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9,.\s%]+\))$`)
	fontSizeRe = regexp.MustCompile(`^\d+(\.\d+)?(px|em|rem|%)$`)
)

// buildContentPolicy allows the rich-text subset used by the article
// editor: structural elements, tables, links, images and embedded
// iframes, plus a narrow inline style allow-list.
func buildContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()

	p.AllowElements(
		"p", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"em", "strong", "b", "i", "u", "s", "sub", "sup",
		"table", "thead", "tbody", "tr", "th", "td", "caption",
		"div", "span", "figure", "figcaption",
	)

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("src", "width", "height", "frameborder", "allowfullscreen").OnElements("iframe")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

	p.AllowAttrs("style").OnElements("p", "span", "div", "h1", "h2", "h3", "h4", "h5", "h6", "td", "th")
	p.AllowStyles("color", "background-color").Matching(colorRe).Globally()
	p.AllowStyles("font-size").Matching(fontSizeRe).Globally()
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").Globally()

	return p
}

// buildExcerptPolicy allows only minimal inline formatting.
func buildExcerptPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "b", "strong", "i", "em")
	return p
}

// Content sanitizes article body HTML.
func Content(s string) string {
	return contentPolicy.Sanitize(s)
}

// Excerpt sanitizes excerpt HTML, keeping only minimal formatting.
func Excerpt(s string) string {
	return excerptPolicy.Sanitize(s)
}

// Plain strips all markup, leaving text content only. Used for titles,
// tags, category descriptions and meta fields.
func Plain(s string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// WordCount counts whitespace-separated words in the text content of
// HTML. Markup and entities do not count as words.
func WordCount(htmlContent string) int {
	text := plainPolicy.Sanitize(htmlContent)
	text = html.UnescapeString(text)
	return len(strings.Fields(text))
}

// ReadTime estimates reading time in whole minutes, never below one.
func ReadTime(htmlContent string) int {
	words := WordCount(htmlContent)
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
