package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slug-swap-api/internal/database"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/slugs"
)

// postScopeColumns whitelists the sibling fields a post slug may be unique with
var postScopeColumns = map[string]string{
	"category_id": "category_id",
}

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db database.Querier
}

// NewPostRepo creates a new post repository
func NewPostRepo(db database.Querier) PostRepository {
	return &postRepo{db: db}
}

const postColumns = "id, category_id, title, slug, body, created_at, updated_at"

// Create inserts a new post and sets its ID
func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO posts (category_id, title, slug, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, post.CategoryID, post.Title, post.Slug, post.Body, now).Scan(&post.ID)
	if err != nil {
		return wrapWrite(err)
	}
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

// Update writes every mutable column of an existing post
func (r *postRepo) Update(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	query := `
		UPDATE posts SET category_id = $1, title = $2, slug = $3, body = $4, updated_at = $5
		WHERE id = $6
	`
	n, err := rowsAffected(r.db.ExecContext(ctx, query,
		post.CategoryID, post.Title, post.Slug, post.Body, now, post.ID,
	))
	if err != nil {
		return wrapWrite(err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	post.UpdatedAt = now
	return nil
}

// Delete removes a post
func (r *postRepo) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id))
	return n > 0, err
}

// GetByID retrieves a post by ID
func (r *postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return r.getOne(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
}

// GetBySlug retrieves a post by its slug within a category
func (r *postRepo) GetBySlug(ctx context.Context, categoryID int64, slug string) (*models.Post, error) {
	return r.getOne(ctx, "SELECT "+postColumns+" FROM posts WHERE category_id = $1 AND slug = $2", categoryID, slug)
}

func (r *postRepo) getOne(ctx context.Context, query string, args ...interface{}) (*models.Post, error) {
	var p models.Post
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.CategoryID, &p.Title, &p.Slug, &p.Body, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetIDsByCategory returns the IDs of every post in a category
func (r *postRepo) GetIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM posts WHERE category_id = $1 ORDER BY id", categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SlugExists checks if another post with the same sibling values holds the slug
func (r *postRepo) SlugExists(ctx context.Context, p slugs.Probe) (bool, error) {
	var b strings.Builder
	b.WriteString("SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND id <> $2")
	args := []interface{}{p.Slug, p.ExcludeID}

	fields := make([]string, 0, len(p.Filters))
	for field := range p.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		column, ok := postScopeColumns[field]
		if !ok {
			return false, fmt.Errorf("unknown post scope field %q", field)
		}
		args = append(args, p.Filters[field])
		fmt.Fprintf(&b, " AND %s = $%d", column, len(args))
	}
	b.WriteString(")")

	var exists bool
	err := r.db.QueryRowContext(ctx, b.String(), args...).Scan(&exists)
	return exists, err
}

// PersistedSlug reads the stored slug of a post
func (r *postRepo) PersistedSlug(ctx context.Context, id int64) (string, bool, error) {
	var slug string
	err := r.db.QueryRowContext(ctx, "SELECT slug FROM posts WHERE id = $1", id).Scan(&slug)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slug, true, nil
}

// Count returns the total number of posts
func (r *postRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	return count, err
}
