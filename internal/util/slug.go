// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode transliteration.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlnumRuns matches runs of characters that are not lowercase
	// letters or digits
	nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify converts a string to a URL-friendly slug.
// Unicode input is normalized (NFKC folds full-width and compatibility
// forms) and transliterated to ASCII, then lowercased; every run of
// non-alphanumeric characters collapses to a single hyphen and leading
// and trailing hyphens are trimmed.
func Slugify(s string) string {
	// Fold compatibility forms before transliteration
	result := norm.NFKC.String(s)

	// Transliterate to ASCII (accents, CJK, cyrillic)
	result = unidecode.Unidecode(result)

	result = strings.ToLower(result)

	// Collapse non-alphanumeric runs to single hyphens
	result = nonAlnumRuns.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	// Only lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	// Must not start or end with a hyphen
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	// No consecutive hyphens
	if strings.Contains(s, "--") {
		return false
	}

	return true
}
