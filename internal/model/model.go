// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds domain enums and small shared types.
package model

import "encoding/json"

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ArticleStatuses lists the valid article statuses.
var ArticleStatuses = []string{StatusDraft, StatusPublished, StatusArchived}

// IsValidArticleStatus reports whether s is a known article status.
func IsValidArticleStatus(s string) bool {
	for _, v := range ArticleStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Contact submission statuses.
const (
	ContactStatusNew        = "new"
	ContactStatusContacted  = "contacted"
	ContactStatusInProgress = "in-progress"
	ContactStatusCompleted  = "completed"
	ContactStatusCancelled  = "cancelled"
)

// ContactStatuses lists the valid contact statuses.
var ContactStatuses = []string{
	ContactStatusNew,
	ContactStatusContacted,
	ContactStatusInProgress,
	ContactStatusCompleted,
	ContactStatusCancelled,
}

// IsValidContactStatus reports whether s is a known contact status.
func IsValidContactStatus(s string) bool {
	for _, v := range ContactStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// User roles.
const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories.
const (
	EventCategoryArticle = "article"
	EventCategoryContact = "contact"
	EventCategoryMail    = "mail"
	EventCategoryCache   = "cache"
	EventCategorySystem  = "system"
)

// Identity is the caller identity supplied by the upstream gateway.
// Authentication happens outside this service; we only trust the
// forwarded headers.
type Identity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// EncodeStringList marshals a string slice into the JSON TEXT column
// format used for article tags and meta keywords. A nil or empty slice
// encodes as "[]".
func EncodeStringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeStringList parses a JSON TEXT column into a string slice.
// Empty or invalid input decodes as an empty slice.
func DecodeStringList(raw string) []string {
	if raw == "" || raw == "[]" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	return items
}
