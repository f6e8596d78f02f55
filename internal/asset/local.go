// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decode support

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
)

// Featured image dimensions match the common OpenGraph card size.
const (
	featuredWidth  = 1200
	featuredHeight = 630
	jpegQuality    = 85
	maxUploadBytes = 10 << 20
)

// LocalStore keeps processed images on the local filesystem under a
// featured/ subdirectory of the uploads dir.
type LocalStore struct {
	uploadsDir string
	baseURL    string
}

// NewLocalStore creates a store rooted at uploadsDir. Served URLs are
// built from baseURL.
func NewLocalStore(uploadsDir, baseURL string) (*LocalStore, error) {
	dir := filepath.Join(uploadsDir, "featured")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &LocalStore{uploadsDir: uploadsDir, baseURL: baseURL}, nil
}

// Upload decodes, orients, crops and stores an image. The stored file
// is always a JPEG regardless of the input format.
func (s *LocalStore) Upload(_ context.Context, r io.Reader, filename string) (Asset, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return Asset{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return Asset{}, apperr.ValidationMsg("Image exceeds the 10MB upload limit")
	}
	if len(data) == 0 {
		return Asset{}, apperr.ValidationMsg("Image file is empty")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Asset{}, apperr.ValidationMsg(fmt.Sprintf("Unsupported image file %q", filename))
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	img = imaging.Fill(img, featuredWidth, featuredHeight, imaging.Center, imaging.Lanczos)

	refID := uuid.New().String()
	path := s.filePath(refID)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Asset{}, fmt.Errorf("encoding image: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Asset{}, fmt.Errorf("writing image file: %w", err)
	}

	return Asset{
		URL:   s.baseURL + "/uploads/featured/" + refID + ".jpg",
		RefID: refID,
	}, nil
}

// Delete removes a stored image. Unknown refs are not an error so that
// article deletion stays idempotent.
func (s *LocalStore) Delete(_ context.Context, refID string) error {
	// The ref must be one of our UUIDs, never a caller-supplied path.
	if _, err := uuid.Parse(refID); err != nil {
		return fmt.Errorf("invalid asset ref %q", refID)
	}

	if err := os.Remove(s.filePath(refID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing image file: %w", err)
	}
	return nil
}

func (s *LocalStore) filePath(refID string) string {
	return filepath.Join(s.uploadsDir, "featured", refID+".jpg")
}

// readExifOrientation returns the EXIF orientation tag, 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation normalizes an image per its EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
