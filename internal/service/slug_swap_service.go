package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/validation"
)

// slugSwapService is the concrete implementation of SlugSwapService
type slugSwapService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newSlugSwapService creates a new SlugSwapService
func newSlugSwapService(repos *repository.Repositories, log zerolog.Logger) *slugSwapService {
	return &slugSwapService{
		repos: repos,
		log:   log.With().Str("service", "slug_swap").Logger(),
	}
}

// FindByOldSlug returns the ledger row for (entityType, oldSlug), or nil
func (s *slugSwapService) FindByOldSlug(ctx context.Context, entityType, oldSlug string) (*models.SlugSwap, error) {
	return s.repos.SlugSwap.FindByOldSlug(ctx, entityType, oldSlug)
}

// List returns one page of ledger rows plus the total for the filter
func (s *slugSwapService) List(ctx context.Context, filter models.SlugSwapFilter) ([]*models.SlugSwap, int, error) {
	swaps, err := s.repos.SlugSwap.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.SlugSwap.Count(ctx, filter.EntityType)
	if err != nil {
		return nil, 0, err
	}
	return swaps, total, nil
}

// History returns every ledger row of an owner with the owner itself resolved.
// Rows are returned even when the owner no longer exists.
func (s *slugSwapService) History(ctx context.Context, owner models.OwnerRef) (*models.SlugHistory, error) {
	swaps, err := s.repos.SlugSwap.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	object, err := s.ContentObject(ctx, owner)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(swaps) == 0 && object == nil {
		return nil, ErrNotFound
	}

	return &models.SlugHistory{
		Owner:         owner,
		ContentObject: object,
		Swaps:         swaps,
	}, nil
}

// ContentObject resolves the polymorphic owner reference to its entity
func (s *slugSwapService) ContentObject(ctx context.Context, owner models.OwnerRef) (interface{}, error) {
	switch owner.Type {
	case models.CategoryType:
		category, err := s.repos.Category.GetByID(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrNotFound
		}
		return category, nil
	case models.PostType:
		post, err := s.repos.Post.GetByID(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if post == nil {
			return nil, ErrNotFound
		}
		return post, nil
	default:
		return nil, invalid([]models.ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unknown owner type %q", owner.Type),
			Value:   owner.Type,
		}})
	}
}

// SetRedirectClass changes whether a ledger row issues a permanent or temporary redirect
func (s *slugSwapService) SetRedirectClass(ctx context.Context, id int64, in *models.RedirectClassInput) (*models.SlugSwap, error) {
	if err := invalid(validation.ValidateRedirectClass(in)); err != nil {
		return nil, err
	}

	updated, err := s.repos.SlugSwap.SetRedirectClass(ctx, id, in.RedirectClass)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotFound
	}

	swap, err := s.repos.SlugSwap.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap == nil {
		return nil, ErrNotFound
	}

	s.log.Info().
		Int64("slug_swap_id", id).
		Str("redirect_class", string(in.RedirectClass)).
		Msg("Redirect class changed")

	return swap, nil
}

// Delete removes a single ledger row; the old slug stops redirecting
func (s *slugSwapService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repos.SlugSwap.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.log.Info().Int64("slug_swap_id", id).Msg("Slug swap deleted")
	return nil
}
