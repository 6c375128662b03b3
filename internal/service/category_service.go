package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/slugs"
	"github.com/slug-swap-api/internal/validation"
)

// categoryService is the concrete implementation of CategoryService
type categoryService struct {
	repos *repository.Repositories
	hook  *slugs.Hook
	log   zerolog.Logger
}

// newCategoryService creates a new CategoryService
func newCategoryService(repos *repository.Repositories, hook *slugs.Hook, log zerolog.Logger) *categoryService {
	return &categoryService{
		repos: repos,
		hook:  hook,
		log:   log.With().Str("service", "category").Logger(),
	}
}

// Create inserts a category with a freshly derived slug
func (s *categoryService) Create(ctx context.Context, in *models.CategoryInput) (*models.Category, slugs.Change, error) {
	return s.save(ctx, &models.Category{}, in)
}

// Update renames a category; a slug change is recorded in the ledger
func (s *categoryService) Update(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, slugs.Change, error) {
	return s.save(ctx, &models.Category{ID: id}, in)
}

func (s *categoryService) save(ctx context.Context, category *models.Category, in *models.CategoryInput) (*models.Category, slugs.Change, error) {
	if err := invalid(validation.ValidateCategory(in)); err != nil {
		return nil, slugs.Change{}, err
	}
	title := strings.TrimSpace(in.Title)

	var change slugs.Change
	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if category.ID != 0 {
			existing, err := tx.Category.GetByID(ctx, category.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return ErrNotFound
			}
			*category = *existing
		}

		taken, err := tx.Category.TitleExists(ctx, title, category.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
		}

		category.Title = title
		change, err = s.hook.Save(ctx, tx.Category, tx.SlugSwap, category, func(ctx context.Context) error {
			if category.ID == 0 {
				return tx.Category.Create(ctx, category)
			}
			return tx.Category.Update(ctx, category)
		})
		return err
	})
	if err != nil {
		return nil, slugs.Change{}, err
	}

	event := s.log.Info().Int64("category_id", category.ID).Str("slug", category.Slug)
	if change.Changed {
		event = event.Str("old_slug", change.Previous)
	}
	event.Msg("Category saved")

	return category, change, nil
}

// Delete removes a category together with its posts and every ledger row they own
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	var removed int64
	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		postIDs, err := tx.Post.GetIDsByCategory(ctx, id)
		if err != nil {
			return err
		}
		for _, postID := range postIDs {
			n, err := tx.SlugSwap.DeleteByOwner(ctx, models.OwnerRef{Type: models.PostType, ID: postID})
			if err != nil {
				return err
			}
			removed += n
		}

		n, err := tx.SlugSwap.DeleteByOwner(ctx, models.OwnerRef{Type: models.CategoryType, ID: id})
		if err != nil {
			return err
		}
		removed += n

		deleted, err := tx.Category.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("category_id", id).Int64("slug_swaps_removed", removed).Msg("Category deleted")
	return nil
}

// GetByID retrieves a category by ID
func (s *categoryService) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.repos.Category.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}
	return category, nil
}

// GetBySlug retrieves a category by its current slug
func (s *categoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.repos.Category.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}
	return category, nil
}
