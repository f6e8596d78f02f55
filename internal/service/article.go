// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the content pipelines between the HTTP
// handlers and the store.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
	"github.com/karanbisht-123/katchincms-go/internal/asset"
	"github.com/karanbisht-123/katchincms-go/internal/cache"
	"github.com/karanbisht-123/katchincms-go/internal/model"
	"github.com/karanbisht-123/katchincms-go/internal/sanitize"
	"github.com/karanbisht-123/katchincms-go/internal/store"
	"github.com/karanbisht-123/katchincms-go/internal/util"
)

// maxSlugRetries bounds the rederive loop when concurrent writers race
// on the same base slug. The UNIQUE index is the final arbiter.
const maxSlugRetries = 5

const statsCacheKey = "articles:stats"
const statsCacheTTL = time.Minute

// ArticleService owns the article lifecycle: sanitize, slug derivation,
// publish transition, read time, listing and stats.
type ArticleService struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cache
	assets  asset.Store
	logger  *slog.Logger
}

// NewArticleService creates an article service. assets may be nil when
// no upload backend is configured.
func NewArticleService(db *sql.DB, c cache.Cache, assets asset.Store, logger *slog.Logger) *ArticleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleService{
		db:      db,
		queries: store.New(db),
		cache:   c,
		assets:  assets,
		logger:  logger,
	}
}

// ArticleInput carries the caller-supplied article fields. All rich
// text is sanitized before persistence.
type ArticleInput struct {
	Title            string
	Content          string
	Excerpt          string
	Tags             []string
	CategoryIDs      []int64
	Status           string
	FeaturedImageURL string
	FeaturedImageRef string
	IsFeatured       bool
	MetaTitle        string
	MetaDescription  string
	MetaKeywords     []string
}

// ArticleDetail is an article with its author and categories resolved.
type ArticleDetail struct {
	Article    store.Article
	Author     *store.User
	Categories []store.Category
}

// Pagination is the listing metadata block.
type Pagination struct {
	Total   int64 `json:"total"`
	Page    int64 `json:"page"`
	Limit   int64 `json:"limit"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func newPagination(total, page, limit int64) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// normalized holds the sanitized write-ready fields shared by create
// and update.
type normalized struct {
	title           string
	content         string
	excerpt         sql.NullString
	tags            string
	status          string
	metaTitle       sql.NullString
	metaDescription sql.NullString
	metaKeywords    string
}

// normalizeInput validates bounds and sanitizes every rich-text field.
// Validation short-circuits before any write.
func normalizeInput(in ArticleInput) (normalized, error) {
	var n normalized

	n.title = strings.TrimSpace(sanitize.Plain(in.Title))
	if len(n.title) < 3 || len(n.title) > 200 {
		return n, apperr.Validation("title", "Title must be between 3 and 200 characters")
	}

	n.content = sanitize.Content(in.Content)
	if len(strings.TrimSpace(sanitize.Plain(n.content))) < 50 {
		return n, apperr.Validation("content", "Content must be at least 50 characters")
	}

	if in.Excerpt != "" {
		excerpt := sanitize.Excerpt(in.Excerpt)
		if len(excerpt) > 1000 {
			return n, apperr.Validation("excerpt", "Excerpt must be at most 1000 characters")
		}
		n.excerpt = util.NullStringFromValue(excerpt)
	}

	n.status = in.Status
	if n.status == "" {
		n.status = model.StatusDraft
	}
	if !model.IsValidArticleStatus(n.status) {
		return n, apperr.Validation("status", "Status must be one of: draft, published, archived")
	}

	if len(in.MetaTitle) > 70 {
		return n, apperr.Validation("meta.title", "Meta title must be at most 70 characters")
	}
	if len(in.MetaDescription) > 160 {
		return n, apperr.Validation("meta.description", "Meta description must be at most 160 characters")
	}
	n.metaTitle = util.NullStringFromValue(sanitize.Plain(in.MetaTitle))
	n.metaDescription = util.NullStringFromValue(sanitize.Plain(in.MetaDescription))

	n.tags = model.EncodeStringList(normalizeTags(in.Tags))
	n.metaKeywords = model.EncodeStringList(sanitizeList(in.MetaKeywords))

	return n, nil
}

// normalizeTags lowercases, strips markup and dedupes tag values.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(sanitize.Plain(t)))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func sanitizeList(items []string) []string {
	var out []string
	for _, s := range items {
		s = strings.TrimSpace(sanitize.Plain(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// validateCategories checks that every referenced category exists.
func (s *ArticleService) validateCategories(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := s.queries.GetCategoryByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.Validation("categories", fmt.Sprintf("Unknown category id %d", id))
			}
			return apperr.Internal(err)
		}
	}
	return nil
}

// deriveSlug builds the base slug from the title and probes the store
// for a free candidate, appending -1, -2, ... while taken. excludeID
// skips the article's own row on update.
func (s *ArticleService) deriveSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		return "", apperr.Validation("title", "Title must contain letters or digits")
	}

	candidate := base
	for i := 1; ; i++ {
		count, err := s.queries.CountArticleSlug(ctx, store.CountArticleSlugParams{
			Slug:      candidate,
			ExcludeID: excludeID,
		})
		if err != nil {
			return "", apperr.Internal(err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Create runs the full write pipeline and persists a new article.
func (s *ArticleService) Create(ctx context.Context, ident model.Identity, in ArticleInput) (*ArticleDetail, error) {
	n, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.validateCategories(ctx, in.CategoryIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	var publishedAt sql.NullTime
	if n.status == model.StatusPublished {
		publishedAt = util.NullTimeFromValue(now)
	}

	var article store.Article
	for attempt := 0; ; attempt++ {
		slug, err := s.deriveSlug(ctx, n.title, 0)
		if err != nil {
			return nil, err
		}

		article, err = s.writeArticle(ctx, func(qtx *store.Queries) (store.Article, error) {
			return qtx.CreateArticle(ctx, store.CreateArticleParams{
				Title:            n.title,
				Slug:             slug,
				Content:          n.content,
				Excerpt:          n.excerpt,
				AuthorID:         ident.UserID,
				Tags:             n.tags,
				Status:           n.status,
				PublishedAt:      publishedAt,
				FeaturedImageURL: util.NullStringFromValue(in.FeaturedImageURL),
				FeaturedImageRef: util.NullStringFromValue(in.FeaturedImageRef),
				ReadTime:         int64(sanitize.ReadTime(n.content)),
				IsFeatured:       in.IsFeatured,
				MetaTitle:        n.metaTitle,
				MetaDescription:  n.metaDescription,
				MetaKeywords:     n.metaKeywords,
				CreatedAt:        now,
				UpdatedAt:        now,
			})
		}, in.CategoryIDs)
		if err == nil {
			break
		}
		// A concurrent writer can take the slug between probe and
		// insert; rederive and try again, bounded.
		if store.IsUniqueViolation(err, "articles.slug") && attempt < maxSlugRetries {
			continue
		}
		if store.IsUniqueViolation(err, "articles.slug") {
			return nil, apperr.Conflict("An article with this slug already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.invalidateStats(ctx)
	s.logger.Info("article created", "id", article.ID, "slug", article.Slug, "author_id", ident.UserID)
	return s.detail(ctx, article)
}

// Update mutates an article. Only its author or an admin may write.
// The slug is rederived only when the title changed; readTime is
// recomputed only when the content changed; publishedAt is stamped
// exactly once on the first transition into published.
func (s *ArticleService) Update(ctx context.Context, ident model.Identity, id int64, in ArticleInput) (*ArticleDetail, error) {
	existing, err := s.queries.GetArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Article")
		}
		return nil, apperr.Internal(err)
	}
	if !ident.IsAdmin() && existing.AuthorID != ident.UserID {
		return nil, apperr.Authorization("You can only modify your own articles")
	}

	n, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.validateCategories(ctx, in.CategoryIDs); err != nil {
		return nil, err
	}

	now := time.Now()

	publishedAt := existing.PublishedAt
	if n.status == model.StatusPublished && !publishedAt.Valid {
		publishedAt = util.NullTimeFromValue(now)
	}

	readTime := existing.ReadTime
	if n.content != existing.Content {
		readTime = int64(sanitize.ReadTime(n.content))
	}

	titleChanged := n.title != existing.Title

	var article store.Article
	for attempt := 0; ; attempt++ {
		slug := existing.Slug
		if titleChanged {
			slug, err = s.deriveSlug(ctx, n.title, id)
			if err != nil {
				return nil, err
			}
		}

		article, err = s.writeArticle(ctx, func(qtx *store.Queries) (store.Article, error) {
			return qtx.UpdateArticle(ctx, store.UpdateArticleParams{
				ID:               id,
				Title:            n.title,
				Slug:             slug,
				Content:          n.content,
				Excerpt:          n.excerpt,
				Tags:             n.tags,
				Status:           n.status,
				PublishedAt:      publishedAt,
				FeaturedImageURL: util.NullStringFromValue(in.FeaturedImageURL),
				FeaturedImageRef: util.NullStringFromValue(in.FeaturedImageRef),
				ReadTime:         readTime,
				IsFeatured:       in.IsFeatured,
				MetaTitle:        n.metaTitle,
				MetaDescription:  n.metaDescription,
				MetaKeywords:     n.metaKeywords,
				UpdatedAt:        now,
			})
		}, in.CategoryIDs)
		if err == nil {
			break
		}
		if titleChanged && store.IsUniqueViolation(err, "articles.slug") && attempt < maxSlugRetries {
			continue
		}
		if store.IsUniqueViolation(err, "articles.slug") {
			return nil, apperr.Conflict("An article with this slug already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.invalidateStats(ctx)
	s.logger.Info("article updated", "id", article.ID, "slug", article.Slug)
	return s.detail(ctx, article)
}

// writeArticle runs the article write and its category assignments in
// one transaction.
func (s *ArticleService) writeArticle(ctx context.Context, write func(*store.Queries) (store.Article, error), categoryIDs []int64) (store.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Article{}, err
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)
	article, err := write(qtx)
	if err != nil {
		return store.Article{}, err
	}
	if err := qtx.SetArticleCategories(ctx, article.ID, categoryIDs); err != nil {
		return store.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.Article{}, err
	}
	return article, nil
}

// Get resolves an article by numeric id or slug.
func (s *ArticleService) Get(ctx context.Context, idOrSlug string) (*ArticleDetail, error) {
	var article store.Article
	var err error

	if id, perr := strconv.ParseInt(idOrSlug, 10, 64); perr == nil {
		article, err = s.queries.GetArticleByID(ctx, id)
	} else {
		article, err = s.queries.GetArticleBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Article")
		}
		return nil, apperr.Internal(err)
	}

	return s.detail(ctx, article)
}

// Delete hard-removes an article. The featured image cleanup is
// best-effort; a failure is logged, never surfaced.
func (s *ArticleService) Delete(ctx context.Context, ident model.Identity, id int64) error {
	existing, err := s.queries.GetArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Article")
		}
		return apperr.Internal(err)
	}
	if !ident.IsAdmin() && existing.AuthorID != ident.UserID {
		return apperr.Authorization("You can only delete your own articles")
	}

	if err := s.queries.DeleteArticle(ctx, id); err != nil {
		return apperr.Internal(err)
	}

	if s.assets != nil && existing.FeaturedImageRef.Valid {
		if err := s.assets.Delete(ctx, existing.FeaturedImageRef.String); err != nil {
			s.logger.Warn("featured image cleanup failed",
				"article_id", id, "ref", existing.FeaturedImageRef.String, "error", err)
		}
	}

	s.invalidateStats(ctx)
	s.logger.Info("article deleted", "id", id, "slug", existing.Slug)
	return nil
}

// ListParams carries the raw listing filters from the transport layer.
type ListParams struct {
	Page      int64
	Limit     int64
	Search    string
	Status    string
	Category  string
	SortBy    string
	SortOrder string
}

// listSortColumns maps API sort field names to store columns.
var listSortColumns = map[string]string{
	"title":       "title",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
}

// List validates the filters and returns one page of articles plus
// pagination metadata. Count and page fetch are separate reads; a
// write between them can skew total slightly, acceptable for a
// listing.
func (s *ArticleService) List(ctx context.Context, p ListParams) ([]ArticleDetail, Pagination, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = 10
	}
	if p.Page < 1 {
		return nil, Pagination{}, apperr.Validation("page", "Page must be at least 1")
	}
	if p.Limit < 1 || p.Limit > 100 {
		return nil, Pagination{}, apperr.Validation("limit", "Limit must be between 1 and 100")
	}
	if p.Status != "" && !model.IsValidArticleStatus(p.Status) {
		return nil, Pagination{}, apperr.Validation("status", "Status must be one of: draft, published, archived")
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortColumn, ok := listSortColumns[sortBy]
	if !ok {
		return nil, Pagination{}, apperr.Validation("sortBy", "Sort field must be one of: title, createdAt, updatedAt, publishedAt")
	}

	sortDesc := true
	switch p.SortOrder {
	case "", "desc":
	case "asc":
		sortDesc = false
	default:
		return nil, Pagination{}, apperr.Validation("sortOrder", "Sort order must be asc or desc")
	}

	var categoryID int64
	if p.Category != "" {
		cat, err := s.resolveCategory(ctx, p.Category)
		if err != nil {
			return nil, Pagination{}, err
		}
		categoryID = cat.ID
	}

	params := store.ListArticlesParams{
		Search:     store.EscapeLike(p.Search),
		Status:     p.Status,
		CategoryID: categoryID,
		SortColumn: sortColumn,
		SortDesc:   sortDesc,
		Limit:      p.Limit,
		Offset:     (p.Page - 1) * p.Limit,
	}

	total, err := s.queries.CountArticles(ctx, params)
	if err != nil {
		return nil, Pagination{}, apperr.Internal(err)
	}

	rows, err := s.queries.ListArticles(ctx, params)
	if err != nil {
		return nil, Pagination{}, apperr.Internal(err)
	}

	items := make([]ArticleDetail, 0, len(rows))
	for _, a := range rows {
		d, err := s.detail(ctx, a)
		if err != nil {
			return nil, Pagination{}, err
		}
		items = append(items, *d)
	}

	return items, newPagination(total, p.Page, p.Limit), nil
}

// resolveCategory accepts a numeric id or a slug. An unresolvable
// category is NotFound; a resolvable but empty one later yields an
// empty page, not an error.
func (s *ArticleService) resolveCategory(ctx context.Context, idOrSlug string) (store.Category, error) {
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

// detail resolves the author and category references of an article.
// A dangling author (removed upstream) is optional on read.
func (s *ArticleService) detail(ctx context.Context, a store.Article) (*ArticleDetail, error) {
	d := &ArticleDetail{Article: a}

	user, err := s.queries.GetUserByID(ctx, a.AuthorID)
	if err == nil {
		d.Author = &user
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Internal(err)
	}

	cats, err := s.queries.GetCategoriesForArticle(ctx, a.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	d.Categories = cats

	return d, nil
}

// StatsSnapshot is the aggregate view of the article collection. Every
// window boundary comes from the same reference time.
type StatsSnapshot struct {
	Total              int64           `json:"total"`
	Published          int64           `json:"published"`
	Draft              int64           `json:"draft"`
	Archived           int64           `json:"archived"`
	PublishedToday     int64           `json:"publishedToday"`
	PublishedThisWeek  int64           `json:"publishedThisWeek"`
	PublishedThisMonth int64           `json:"publishedThisMonth"`
	RecentlyPublished  []RecentArticle `json:"recentlyPublished"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}

// RecentArticle is a preview entry in the stats snapshot.
type RecentArticle struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	AuthorID    int64      `json:"authorId"`
	AuthorName  string     `json:"authorName,omitempty"`
}

// Stats returns the snapshot, served from cache when fresh.
func (s *ArticleService) Stats(ctx context.Context) (*StatsSnapshot, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, statsCacheKey); err == nil {
			var snap StatsSnapshot
			if json.Unmarshal(data, &snap) == nil {
				return &snap, nil
			}
		}
	}

	snap, err := s.computeStats(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, data, statsCacheTTL); err != nil {
				s.logger.Warn("caching stats snapshot failed", "error", err)
			}
		}
	}

	return snap, nil
}

// WarmStats recomputes and caches the snapshot. Run from the scheduler.
func (s *ArticleService) WarmStats(ctx context.Context) error {
	snap, err := s.computeStats(ctx, time.Now())
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, statsCacheKey, data, statsCacheTTL)
}

// computeStats derives every window from the one reference time: local
// midnight for today, the most recent Sunday 00:00 for the week, the
// first of the month for the month.
func (s *ArticleService) computeStats(ctx context.Context, now time.Time) (*StatsSnapshot, error) {
	y, m, d := now.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	row, err := s.queries.GetArticleStats(ctx, store.GetArticleStatsParams{
		TodayStart: todayStart,
		TodayEnd:   todayStart.AddDate(0, 0, 1),
		WeekStart:  todayStart.AddDate(0, 0, -int(now.Weekday())),
		MonthStart: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()),
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	recent, err := s.queries.ListRecentPublished(ctx, 5)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	snap := &StatsSnapshot{
		Total:              row.Total,
		Published:          row.Published,
		Draft:              row.Draft,
		Archived:           row.Archived,
		PublishedToday:     row.PublishedToday,
		PublishedThisWeek:  row.PublishedThisWeek,
		PublishedThisMonth: row.PublishedThisMonth,
		RecentlyPublished:  make([]RecentArticle, 0, len(recent)),
		GeneratedAt:        now,
	}
	for _, r := range recent {
		ra := RecentArticle{
			ID:         r.ID,
			Title:      r.Title,
			Slug:       r.Slug,
			CreatedAt:  r.CreatedAt,
			AuthorID:   r.AuthorID,
			AuthorName: util.StringFromNull(r.AuthorName),
		}
		if r.PublishedAt.Valid {
			t := r.PublishedAt.Time
			ra.PublishedAt = &t
		}
		snap.RecentlyPublished = append(snap.RecentlyPublished, ra)
	}

	return snap, nil
}

func (s *ArticleService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil && !errors.Is(err, cache.ErrCacheClosed) {
		s.logger.Warn("invalidating stats cache failed", "error", err)
	}
}
