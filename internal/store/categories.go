package store

import (
	"context"
	"database/sql"
	"time"
)

// Category is a row in the categories table.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const categoryColumns = `id, name, slug, description, created_at, updated_at`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCategoryParams holds the fields for a new category.
type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCategory inserts a new category and returns the created row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+categoryColumns,
		arg.Name, arg.Slug, arg.Description, arg.CreatedAt, arg.UpdatedAt)
	return scanCategory(row)
}

// GetCategoryByID retrieves a category by its numeric ID.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetCategoryBySlug retrieves a category by its slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	return scanCategory(row)
}

// UpdateCategoryParams holds the updatable category fields.
type UpdateCategoryParams struct {
	ID          int64
	Name        string
	Slug        string
	Description sql.NullString
	UpdatedAt   time.Time
}

// UpdateCategory replaces the category fields and returns the updated row.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+categoryColumns,
		arg.Name, arg.Slug, arg.Description, arg.UpdatedAt, arg.ID)
	return scanCategory(row)
}

// DeleteCategory removes a category. Join rows cascade; articles that
// referenced it simply lose the assignment.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// ListCategoriesParams paginates and optionally searches the listing.
type ListCategoriesParams struct {
	Search string
	Limit  int64
	Offset int64
}

// ListCategories returns one page of categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, arg ListCategoriesParams) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if arg.Search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+arg.Search+"%")
	}
	query += ` ORDER BY name LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountCategories returns the number of categories matching the search.
func (q *Queries) CountCategories(ctx context.Context, search string) (int64, error) {
	query := `SELECT COUNT(*) FROM categories`
	var args []any
	if search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+search+"%")
	}

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// CountCategoryNameParams identifies a name probe for uniqueness checks.
type CountCategoryNameParams struct {
	Name      string
	ExcludeID int64
}

// CountCategoryName counts categories with the given name, case-insensitively.
func (q *Queries) CountCategoryName(ctx context.Context, arg CountCategoryNameParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? COLLATE NOCASE AND id != ?`,
		arg.Name, arg.ExcludeID).Scan(&count)
	return count, err
}

// CountCategorySlugParams identifies a slug probe for uniqueness checks.
type CountCategorySlugParams struct {
	Slug      string
	ExcludeID int64
}

// CountCategorySlug counts categories holding the given slug.
func (q *Queries) CountCategorySlug(ctx context.Context, arg CountCategorySlugParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?`,
		arg.Slug, arg.ExcludeID).Scan(&count)
	return count, err
}
