package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/slug-swap-api/internal/database"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/slugs"
)

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db database.Querier
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db database.Querier) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = "id, title, slug, created_at, updated_at"

// Create inserts a new category and sets its ID
func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO categories (title, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, category.Title, category.Slug, now).Scan(&category.ID)
	if err != nil {
		return wrapWrite(err)
	}
	category.CreatedAt = now
	category.UpdatedAt = now
	return nil
}

// Update writes the title and slug of an existing category
func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	query := `UPDATE categories SET title = $1, slug = $2, updated_at = $3 WHERE id = $4`
	n, err := rowsAffected(r.db.ExecContext(ctx, query, category.Title, category.Slug, now, category.ID))
	if err != nil {
		return wrapWrite(err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	category.UpdatedAt = now
	return nil
}

// Delete removes a category; its posts go with it through the foreign key
func (r *categoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id))
	return n > 0, err
}

// GetByID retrieves a category by ID
func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id)
}

// GetBySlug retrieves a category by its current slug
func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE slug = $1", slug)
}

func (r *categoryRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Title, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TitleExists checks if another category already uses the title
func (r *categoryRepo) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE title = $1 AND id <> $2)", title, excludeID,
	).Scan(&exists)
	return exists, err
}

// SlugExists checks if another category holds the slug. Category slugs are global,
// so probe filters are ignored.
func (r *categoryRepo) SlugExists(ctx context.Context, p slugs.Probe) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)", p.Slug, p.ExcludeID,
	).Scan(&exists)
	return exists, err
}

// PersistedSlug reads the stored slug of a category
func (r *categoryRepo) PersistedSlug(ctx context.Context, id int64) (string, bool, error) {
	var slug string
	err := r.db.QueryRowContext(ctx, "SELECT slug FROM categories WHERE id = $1", id).Scan(&slug)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slug, true, nil
}

// Count returns the total number of categories
func (r *categoryRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count)
	return count, err
}
