package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slug-swap-api/internal/database"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/slugs"
)

// ErrConflict is returned when a write hits a unique index. Callers may retry.
var ErrConflict = errors.New("unique constraint conflict")

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	slugs.Store
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	Count(ctx context.Context) (int, error)
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	slugs.Store
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetBySlug(ctx context.Context, categoryID int64, slug string) (*models.Post, error)
	GetIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error)
	Count(ctx context.Context) (int, error)
}

// SlugSwapRepository defines the interface for slug swap ledger operations
type SlugSwapRepository interface {
	slugs.Ledger
	slugs.LedgerReader
	GetByID(ctx context.Context, id int64) (*models.SlugSwap, error)
	List(ctx context.Context, filter models.SlugSwapFilter) ([]*models.SlugSwap, error)
	ListByOwner(ctx context.Context, owner models.OwnerRef) ([]*models.SlugSwap, error)
	SetRedirectClass(ctx context.Context, id int64, class models.RedirectClass) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteByOwner(ctx context.Context, owner models.OwnerRef) (int64, error)
	PruneOrphans(ctx context.Context) (int64, error)
	Count(ctx context.Context, entityType string) (int, error)
	StreamAll(ctx context.Context, callback func(*models.SlugSwap) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Category CategoryRepository
	Post     PostRepository
	SlugSwap SlugSwapRepository

	db *database.DB
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	r := bind(db)
	r.db = db
	return r
}

func bind(q database.Querier) *Repositories {
	return &Repositories{
		Category: NewCategoryRepo(q),
		Post:     NewPostRepo(q),
		SlugSwap: NewSlugSwapRepo(q),
	}
}

// WithTx runs fn with repositories bound to a single transaction. Repositories that are
// already transactional, or that have no database (mocks), are passed to fn as they are.
func (r *Repositories) WithTx(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(bind(tx))
	})
}

// wrapWrite maps unique index violations to ErrConflict
func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
