// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
	"github.com/karanbisht-123/katchincms-go/internal/sanitize"
	"github.com/karanbisht-123/katchincms-go/internal/store"
	"github.com/karanbisht-123/katchincms-go/internal/util"
)

// CategoryService manages the category taxonomy. Mutations are
// admin-only, enforced at the route layer.
type CategoryService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewCategoryService creates a category service.
func NewCategoryService(db *sql.DB, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{
		queries: store.New(db),
		logger:  logger,
	}
}

// CategoryInput carries the caller-supplied category fields.
type CategoryInput struct {
	Name        string
	Description string
}

// normalizeCategory validates bounds and derives the slug from the
// name. The slug is deterministic, never counter-suffixed: a slug
// collision between distinct names is a Conflict.
func normalizeCategory(in CategoryInput) (name, slug string, description sql.NullString, err error) {
	name = strings.TrimSpace(sanitize.Plain(in.Name))
	if len(name) < 2 || len(name) > 50 {
		return "", "", sql.NullString{}, apperr.Validation("name", "Name must be between 2 and 50 characters")
	}

	slug = util.Slugify(name)
	if slug == "" {
		return "", "", sql.NullString{}, apperr.Validation("name", "Name must contain letters or digits")
	}

	if in.Description != "" {
		desc := strings.TrimSpace(sanitize.Plain(in.Description))
		if len(desc) > 500 {
			return "", "", sql.NullString{}, apperr.Validation("description", "Description must be at most 500 characters")
		}
		description = util.NullStringFromValue(desc)
	}

	return name, slug, description, nil
}

// checkDuplicates probes for a name or slug already in use, excluding
// the category's own row on update.
func (s *CategoryService) checkDuplicates(ctx context.Context, name, slug string, excludeID int64) error {
	count, err := s.queries.CountCategoryName(ctx, store.CountCategoryNameParams{
		Name:      name,
		ExcludeID: excludeID,
	})
	if err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Conflict("A category with this name already exists")
	}

	count, err = s.queries.CountCategorySlug(ctx, store.CountCategorySlugParams{
		Slug:      slug,
		ExcludeID: excludeID,
	})
	if err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Conflict("A category with this slug already exists")
	}

	return nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (store.Category, error) {
	name, slug, description, err := normalizeCategory(in)
	if err != nil {
		return store.Category{}, err
	}
	if err := s.checkDuplicates(ctx, name, slug, 0); err != nil {
		return store.Category{}, err
	}

	now := time.Now()
	cat, err := s.queries.CreateCategory(ctx, store.CreateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		// The probes race with concurrent creates; the UNIQUE indexes
		// decide.
		if store.IsUniqueViolation(err, "categories.name") || store.IsUniqueViolation(err, "categories.slug") {
			return store.Category{}, apperr.Conflict("A category with this name already exists")
		}
		return store.Category{}, apperr.Internal(err)
	}

	s.logger.Info("category created", "id", cat.ID, "slug", cat.Slug)
	return cat, nil
}

// Update renames a category; the slug follows the name.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (store.Category, error) {
	if _, err := s.queries.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Category{}, apperr.NotFound("Category")
		}
		return store.Category{}, apperr.Internal(err)
	}

	name, slug, description, err := normalizeCategory(in)
	if err != nil {
		return store.Category{}, err
	}
	if err := s.checkDuplicates(ctx, name, slug, id); err != nil {
		return store.Category{}, err
	}

	cat, err := s.queries.UpdateCategory(ctx, store.UpdateCategoryParams{
		ID:          id,
		Name:        name,
		Slug:        slug,
		Description: description,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		if store.IsUniqueViolation(err, "categories.name") || store.IsUniqueViolation(err, "categories.slug") {
			return store.Category{}, apperr.Conflict("A category with this name already exists")
		}
		return store.Category{}, apperr.Internal(err)
	}

	s.logger.Info("category updated", "id", cat.ID, "slug", cat.Slug)
	return cat, nil
}

// Delete removes a category. Article assignments cascade away; the
// articles themselves are untouched.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.queries.GetCategoryByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Category")
		}
		return apperr.Internal(err)
	}

	if err := s.queries.DeleteCategory(ctx, id); err != nil {
		return apperr.Internal(err)
	}

	s.logger.Info("category deleted", "id", id)
	return nil
}

// Get resolves a category by numeric id or slug.
func (s *CategoryService) Get(ctx context.Context, idOrSlug string) (store.Category, error) {
	var cat store.Category
	var err error

	if id, perr := strconv.ParseInt(idOrSlug, 10, 64); perr == nil {
		cat, err = s.queries.GetCategoryByID(ctx, id)
	} else {
		cat, err = s.queries.GetCategoryBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Category{}, apperr.NotFound("Category")
		}
		return store.Category{}, apperr.Internal(err)
	}
	return cat, nil
}

// List returns categories matching an optional name search, ordered by
// name.
func (s *CategoryService) List(ctx context.Context, search string) ([]store.Category, error) {
	// The taxonomy stays small; LIMIT -1 is SQLite for unbounded.
	cats, err := s.queries.ListCategories(ctx, store.ListCategoriesParams{
		Search: store.EscapeLike(search),
		Limit:  -1,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cats, nil
}
