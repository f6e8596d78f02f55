package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Article is a row in the articles table. Tags and MetaKeywords hold
// JSON-encoded string arrays.
type Article struct {
	ID               int64
	Title            string
	Slug             string
	Content          string
	Excerpt          sql.NullString
	AuthorID         int64
	Tags             string
	Status           string
	PublishedAt      sql.NullTime
	FeaturedImageURL sql.NullString
	FeaturedImageRef sql.NullString
	ReadTime         int64
	IsFeatured       bool
	MetaTitle        sql.NullString
	MetaDescription  sql.NullString
	MetaKeywords     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const articleColumns = `id, title, slug, content, excerpt, author_id, tags, status,
	published_at, featured_image_url, featured_image_ref, read_time, is_featured,
	meta_title, meta_description, meta_keywords, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Content, &a.Excerpt, &a.AuthorID, &a.Tags,
		&a.Status, &a.PublishedAt, &a.FeaturedImageURL, &a.FeaturedImageRef,
		&a.ReadTime, &a.IsFeatured, &a.MetaTitle, &a.MetaDescription,
		&a.MetaKeywords, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// CreateArticleParams holds the fields for a new article row.
type CreateArticleParams struct {
	Title            string
	Slug             string
	Content          string
	Excerpt          sql.NullString
	AuthorID         int64
	Tags             string
	Status           string
	PublishedAt      sql.NullTime
	FeaturedImageURL sql.NullString
	FeaturedImageRef sql.NullString
	ReadTime         int64
	IsFeatured       bool
	MetaTitle        sql.NullString
	MetaDescription  sql.NullString
	MetaKeywords     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateArticle inserts a new article and returns the created row.
func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO articles (
			title, slug, content, excerpt, author_id, tags, status, published_at,
			featured_image_url, featured_image_ref, read_time, is_featured,
			meta_title, meta_description, meta_keywords, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+articleColumns,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.AuthorID, arg.Tags,
		arg.Status, arg.PublishedAt, arg.FeaturedImageURL, arg.FeaturedImageRef,
		arg.ReadTime, arg.IsFeatured, arg.MetaTitle, arg.MetaDescription,
		arg.MetaKeywords, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanArticle(row)
}

// GetArticleByID retrieves an article by its numeric ID.
func (q *Queries) GetArticleByID(ctx context.Context, id int64) (Article, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	return scanArticle(row)
}

// GetArticleBySlug retrieves an article by its slug.
func (q *Queries) GetArticleBySlug(ctx context.Context, slug string) (Article, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug)
	return scanArticle(row)
}

// UpdateArticleParams holds the full set of updatable article fields.
type UpdateArticleParams struct {
	ID               int64
	Title            string
	Slug             string
	Content          string
	Excerpt          sql.NullString
	Tags             string
	Status           string
	PublishedAt      sql.NullTime
	FeaturedImageURL sql.NullString
	FeaturedImageRef sql.NullString
	ReadTime         int64
	IsFeatured       bool
	MetaTitle        sql.NullString
	MetaDescription  sql.NullString
	MetaKeywords     string
	UpdatedAt        time.Time
}

// UpdateArticle replaces all updatable fields and returns the updated row.
func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE articles SET
			title = ?, slug = ?, content = ?, excerpt = ?, tags = ?, status = ?,
			published_at = ?, featured_image_url = ?, featured_image_ref = ?,
			read_time = ?, is_featured = ?, meta_title = ?, meta_description = ?,
			meta_keywords = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+articleColumns,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Tags, arg.Status,
		arg.PublishedAt, arg.FeaturedImageURL, arg.FeaturedImageRef,
		arg.ReadTime, arg.IsFeatured, arg.MetaTitle, arg.MetaDescription,
		arg.MetaKeywords, arg.UpdatedAt, arg.ID,
	)
	return scanArticle(row)
}

// DeleteArticle removes an article; the category join rows cascade.
func (q *Queries) DeleteArticle(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	return err
}

// CountArticleSlugParams identifies a slug probe; ExcludeID skips the
// article's own row on update.
type CountArticleSlugParams struct {
	Slug      string
	ExcludeID int64
}

// CountArticleSlug counts articles holding the given slug.
func (q *Queries) CountArticleSlug(ctx context.Context, arg CountArticleSlugParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE slug = ? AND id != ?`,
		arg.Slug, arg.ExcludeID).Scan(&count)
	return count, err
}

// articleSortColumns is the ORDER BY allow-list. Anything else falls
// back to published_at.
var articleSortColumns = map[string]string{
	"title":        "title",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"published_at": "published_at",
}

// ListArticlesParams filters, sorts and paginates the article listing.
// Search is matched literally (already LIKE-escaped by EscapeLike).
type ListArticlesParams struct {
	Search     string
	Status     string
	CategoryID int64
	SortColumn string
	SortDesc   bool
	Limit      int64
	Offset     int64
}

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func articleFilterClause(arg ListArticlesParams) (string, []any) {
	var conds []string
	var args []any

	if arg.Search != "" {
		pattern := "%" + arg.Search + "%"
		conds = append(conds, `(title LIKE ? ESCAPE '\'
			OR content LIKE ? ESCAPE '\'
			OR tags LIKE ? ESCAPE '\'
			OR COALESCE(excerpt, '') LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if arg.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, arg.Status)
	}
	if arg.CategoryID != 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM article_categories ac
			WHERE ac.article_id = articles.id AND ac.category_id = ?)`)
		args = append(args, arg.CategoryID)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListArticles returns one page of articles matching the filter.
func (q *Queries) ListArticles(ctx context.Context, arg ListArticlesParams) ([]Article, error) {
	where, args := articleFilterClause(arg)

	col, ok := articleSortColumns[arg.SortColumn]
	if !ok {
		col = "published_at"
	}
	dir := "ASC"
	if arg.SortDesc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM articles%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		articleColumns, where, col, dir, dir)
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// CountArticles returns the total number of articles matching the filter.
func (q *Queries) CountArticles(ctx context.Context, arg ListArticlesParams) (int64, error) {
	where, args := articleFilterClause(arg)

	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles`+where, args...).Scan(&count)
	return count, err
}

// SetArticleCategories replaces the category assignments of an article.
// Call inside a transaction together with the article write.
func (q *Queries) SetArticleCategories(ctx context.Context, articleID int64, categoryIDs []int64) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM article_categories WHERE article_id = ?`, articleID); err != nil {
		return err
	}
	for _, catID := range categoryIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO article_categories (article_id, category_id) VALUES (?, ?)`,
			articleID, catID); err != nil {
			return err
		}
	}
	return nil
}

// GetCategoriesForArticle returns the categories assigned to an article.
func (q *Queries) GetCategoriesForArticle(ctx context.Context, articleID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
		FROM categories c
		JOIN article_categories ac ON ac.category_id = c.id
		WHERE ac.article_id = ?
		ORDER BY c.name`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// GetArticleStatsParams carries the time-window boundaries for the
// aggregation, all derived from a single reference time.
type GetArticleStatsParams struct {
	TodayStart time.Time
	TodayEnd   time.Time
	WeekStart  time.Time
	MonthStart time.Time
}

// ArticleStatsRow is the single-pass aggregation result.
type ArticleStatsRow struct {
	Total              int64
	Published          int64
	Draft              int64
	Archived           int64
	PublishedToday     int64
	PublishedThisWeek  int64
	PublishedThisMonth int64
}

// GetArticleStats computes all status and window counts in one scan.
func (q *Queries) GetArticleStats(ctx context.Context, arg GetArticleStatsParams) (ArticleStatsRow, error) {
	var s ArticleStatsRow
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'published'), 0),
			COALESCE(SUM(status = 'draft'), 0),
			COALESCE(SUM(status = 'archived'), 0),
			COALESCE(SUM(status = 'published' AND published_at >= ? AND published_at < ?), 0),
			COALESCE(SUM(status = 'published' AND published_at >= ?), 0),
			COALESCE(SUM(status = 'published' AND published_at >= ?), 0)
		FROM articles`,
		arg.TodayStart, arg.TodayEnd, arg.WeekStart, arg.MonthStart,
	).Scan(&s.Total, &s.Published, &s.Draft, &s.Archived,
		&s.PublishedToday, &s.PublishedThisWeek, &s.PublishedThisMonth)
	return s, err
}

// RecentPublishedRow is a preview row for the stats endpoint.
type RecentPublishedRow struct {
	ID          int64
	Title       string
	Slug        string
	PublishedAt sql.NullTime
	CreatedAt   time.Time
	AuthorID    int64
	AuthorName  sql.NullString
}

// ListRecentPublished returns the most recently published articles with
// author names resolved.
func (q *Queries) ListRecentPublished(ctx context.Context, limit int64) ([]RecentPublishedRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.slug, a.published_at, a.created_at, a.author_id, u.name
		FROM articles a
		LEFT JOIN users u ON u.id = a.author_id
		WHERE a.status = 'published'
		ORDER BY a.published_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RecentPublishedRow
	for rows.Next() {
		var r RecentPublishedRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Slug, &r.PublishedAt, &r.CreatedAt, &r.AuthorID, &r.AuthorName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure on the given constraint (e.g. "articles.slug").
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, constraint)
}
