// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package asset stores uploaded article images. Uploads are normalized
// to a fixed-size JPEG suitable for featured image slots and social
// preview cards.
package asset

import (
	"context"
	"io"
)

// Asset describes a stored image.
type Asset struct {
	// URL is the public URL the image is served from.
	URL string

	// RefID identifies the stored file for later cleanup.
	RefID string
}

// Store persists uploaded images and deletes them when their article
// goes away.
type Store interface {
	Upload(ctx context.Context, r io.Reader, filename string) (Asset, error)
	Delete(ctx context.Context, refID string) error
}
