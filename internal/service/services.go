package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/slugs"
)

// CategoryService defines the interface for category lifecycle operations
type CategoryService interface {
	Create(ctx context.Context, in *models.CategoryInput) (*models.Category, slugs.Change, error)
	Update(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, slugs.Change, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// PostService defines the interface for post lifecycle operations
type PostService interface {
	Create(ctx context.Context, in *models.PostInput) (*models.Post, slugs.Change, error)
	Update(ctx context.Context, id int64, in *models.PostInput) (*models.Post, slugs.Change, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetBySlugs(ctx context.Context, categorySlug, postSlug string) (*models.Post, error)
}

// SlugSwapService defines the interface for ledger administration and lookups
type SlugSwapService interface {
	slugs.LedgerReader
	List(ctx context.Context, filter models.SlugSwapFilter) ([]*models.SlugSwap, int, error)
	History(ctx context.Context, owner models.OwnerRef) (*models.SlugHistory, error)
	ContentObject(ctx context.Context, owner models.OwnerRef) (interface{}, error)
	SetRedirectClass(ctx context.Context, id int64, in *models.RedirectClassInput) (*models.SlugSwap, error)
	Delete(ctx context.Context, id int64) error
}

// ExportService defines the interface for ledger export
type ExportService interface {
	StreamSlugSwaps(ctx context.Context, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// ReconcileService defines the interface for ledger reconciliation
type ReconcileService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	RunOnce(ctx context.Context) (int64, error)
}

// Services holds all service interfaces
type Services struct {
	Category  CategoryService
	Post      PostService
	SlugSwap  SlugSwapService
	Export    ExportService
	Reconcile ReconcileService
}

// SlugFields builds the slug field definitions of the owner types from configuration
func SlugFields(cfg config.SlugConfig) (category, post slugs.Field) {
	base := slugs.Field{
		Slugify:      slugs.ByName(cfg.Normalizer),
		AllowUnicode: cfg.AllowUnicode,
		MaxLength:    cfg.MaxLength,
		MaxAttempts:  cfg.MaxSuffixAttempts,
	}
	category, post = base, base
	category.Unique = true
	post.UniqueWith = []string{"category_id"}
	return category, post
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	categoryField, postField := SlugFields(cfg.Slug)

	categoryHook, err := slugs.NewHook(categoryField, log.With().Str("component", "category_slug").Logger())
	if err != nil {
		return nil, fmt.Errorf("category slug field: %w", err)
	}
	postHook, err := slugs.NewHook(postField, log.With().Str("component", "post_slug").Logger())
	if err != nil {
		return nil, fmt.Errorf("post slug field: %w", err)
	}

	return &Services{
		Category:  newCategoryService(repos, categoryHook, log),
		Post:      newPostService(repos, postHook, log),
		SlugSwap:  newSlugSwapService(repos, log),
		Export:    newExportService(repos, log),
		Reconcile: newReconcileService(repos.SlugSwap, cfg.Slug.ReconcileInterval, log),
	}, nil
}
