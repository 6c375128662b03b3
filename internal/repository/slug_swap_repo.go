package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/slug-swap-api/internal/database"
	"github.com/slug-swap-api/internal/models"
)

// OwnerTables maps each owner type to the table its rows live in. Ledger rows whose
// owner is missing from that table are orphans.
var OwnerTables = map[string]string{
	models.CategoryType: "categories",
	models.PostType:     "posts",
}

// slugSwapRepo is the concrete implementation of SlugSwapRepository
type slugSwapRepo struct {
	db database.Querier
}

// NewSlugSwapRepo creates a new slug swap repository
func NewSlugSwapRepo(db database.Querier) SlugSwapRepository {
	return &slugSwapRepo{db: db}
}

const slugSwapColumns = "id, entity_type, object_id, old_slug, new_slug, redirect_class, created_at, updated_at"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSlugSwap(s scanner) (*models.SlugSwap, error) {
	var swap models.SlugSwap
	var class string
	err := s.Scan(
		&swap.ID, &swap.Owner.Type, &swap.Owner.ID, &swap.OldSlug, &swap.NewSlug,
		&class, &swap.CreatedAt, &swap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	swap.RedirectClass = models.RedirectClass(class)
	return &swap, nil
}

// Upsert records old -> new in one statement keyed on (entity_type, old_slug). The
// redirect class of an existing row is left alone.
func (r *slugSwapRepo) Upsert(ctx context.Context, swap *models.SlugSwap) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO slug_swaps (entity_type, object_id, old_slug, new_slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (entity_type, old_slug) DO UPDATE
		SET new_slug = excluded.new_slug,
		    object_id = excluded.object_id,
		    updated_at = excluded.updated_at
		RETURNING id, redirect_class
	`
	var class string
	err := r.db.QueryRowContext(ctx, query,
		swap.Owner.Type, swap.Owner.ID, swap.OldSlug, swap.NewSlug, now,
	).Scan(&swap.ID, &class)
	if err != nil {
		return wrapWrite(err)
	}
	swap.RedirectClass = models.RedirectClass(class)
	swap.UpdatedAt = now
	return nil
}

// ReleaseSlug deletes the owner's row for a slug the owner holds again
func (r *slugSwapRepo) ReleaseSlug(ctx context.Context, owner models.OwnerRef, slug string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		"DELETE FROM slug_swaps WHERE entity_type = $1 AND object_id = $2 AND old_slug = $3",
		owner.Type, owner.ID, slug,
	))
}

// Repoint moves all of the owner's rows to its current slug so every redirect is one hop
func (r *slugSwapRepo) Repoint(ctx context.Context, owner models.OwnerRef, newSlug string) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		"UPDATE slug_swaps SET new_slug = $1, updated_at = $2 WHERE entity_type = $3 AND object_id = $4 AND new_slug <> $1",
		newSlug, time.Now().UTC(), owner.Type, owner.ID,
	))
}

// FindByOldSlug retrieves the row for a stale slug of an entity type
func (r *slugSwapRepo) FindByOldSlug(ctx context.Context, entityType, oldSlug string) (*models.SlugSwap, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+slugSwapColumns+" FROM slug_swaps WHERE entity_type = $1 AND old_slug = $2",
		entityType, oldSlug,
	)
	swap, err := scanSlugSwap(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return swap, err
}

// GetByID retrieves a ledger row by ID
func (r *slugSwapRepo) GetByID(ctx context.Context, id int64) (*models.SlugSwap, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+slugSwapColumns+" FROM slug_swaps WHERE id = $1", id)
	swap, err := scanSlugSwap(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return swap, err
}

// List returns a page of ledger rows, optionally of one entity type, oldest first
func (r *slugSwapRepo) List(ctx context.Context, filter models.SlugSwapFilter) ([]*models.SlugSwap, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + slugSwapColumns + ` FROM slug_swaps
		WHERE (CAST($1 AS TEXT) = '' OR entity_type = $1)
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	return r.query(ctx, query, filter.EntityType, limit, filter.Offset)
}

// ListByOwner returns every row of one owner, oldest first
func (r *slugSwapRepo) ListByOwner(ctx context.Context, owner models.OwnerRef) ([]*models.SlugSwap, error) {
	return r.query(ctx,
		"SELECT "+slugSwapColumns+" FROM slug_swaps WHERE entity_type = $1 AND object_id = $2 ORDER BY id",
		owner.Type, owner.ID,
	)
}

func (r *slugSwapRepo) query(ctx context.Context, query string, args ...interface{}) ([]*models.SlugSwap, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swaps := make([]*models.SlugSwap, 0)
	for rows.Next() {
		swap, err := scanSlugSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}
	return swaps, rows.Err()
}

// SetRedirectClass changes the redirect class of one row
func (r *slugSwapRepo) SetRedirectClass(ctx context.Context, id int64, class models.RedirectClass) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx,
		"UPDATE slug_swaps SET redirect_class = $1, updated_at = $2 WHERE id = $3",
		string(class), time.Now().UTC(), id,
	))
	return n > 0, err
}

// Delete removes one row
func (r *slugSwapRepo) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := rowsAffected(r.db.ExecContext(ctx, "DELETE FROM slug_swaps WHERE id = $1", id))
	return n > 0, err
}

// DeleteByOwner removes every row of one owner
func (r *slugSwapRepo) DeleteByOwner(ctx context.Context, owner models.OwnerRef) (int64, error) {
	return rowsAffected(r.db.ExecContext(ctx,
		"DELETE FROM slug_swaps WHERE entity_type = $1 AND object_id = $2",
		owner.Type, owner.ID,
	))
}

// PruneOrphans removes rows whose owner no longer exists
func (r *slugSwapRepo) PruneOrphans(ctx context.Context) (int64, error) {
	types := make([]string, 0, len(OwnerTables))
	for t := range OwnerTables {
		types = append(types, t)
	}
	sort.Strings(types)

	var total int64
	for _, t := range types {
		query := fmt.Sprintf(
			"DELETE FROM slug_swaps WHERE entity_type = $1 AND NOT EXISTS (SELECT 1 FROM %s o WHERE o.id = slug_swaps.object_id)",
			OwnerTables[t],
		)
		n, err := rowsAffected(r.db.ExecContext(ctx, query, t))
		if err != nil {
			return total, fmt.Errorf("prune %s slug swaps: %w", t, err)
		}
		total += n
	}
	return total, nil
}

// Count returns the number of rows, optionally of one entity type
func (r *slugSwapRepo) Count(ctx context.Context, entityType string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM slug_swaps WHERE (CAST($1 AS TEXT) = '' OR entity_type = $1)", entityType,
	).Scan(&count)
	return count, err
}

// StreamAll streams every ledger row for export
func (r *slugSwapRepo) StreamAll(ctx context.Context, callback func(*models.SlugSwap) error) error {
	rows, err := r.db.QueryContext(ctx, "SELECT "+slugSwapColumns+" FROM slug_swaps ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		swap, err := scanSlugSwap(rows)
		if err != nil {
			return err
		}
		if err := callback(swap); err != nil {
			return err
		}
	}

	return rows.Err()
}
