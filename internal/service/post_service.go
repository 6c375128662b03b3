package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/slugs"
	"github.com/slug-swap-api/internal/validation"
)

// postService is the concrete implementation of PostService
type postService struct {
	repos *repository.Repositories
	hook  *slugs.Hook
	log   zerolog.Logger
}

// newPostService creates a new PostService
func newPostService(repos *repository.Repositories, hook *slugs.Hook, log zerolog.Logger) *postService {
	return &postService{
		repos: repos,
		hook:  hook,
		log:   log.With().Str("service", "post").Logger(),
	}
}

// Create inserts a post with a slug unique within its category
func (s *postService) Create(ctx context.Context, in *models.PostInput) (*models.Post, slugs.Change, error) {
	return s.save(ctx, &models.Post{}, in)
}

// Update changes a post; a new title or category may change its slug
func (s *postService) Update(ctx context.Context, id int64, in *models.PostInput) (*models.Post, slugs.Change, error) {
	return s.save(ctx, &models.Post{ID: id}, in)
}

func (s *postService) save(ctx context.Context, post *models.Post, in *models.PostInput) (*models.Post, slugs.Change, error) {
	if err := invalid(validation.ValidatePost(in)); err != nil {
		return nil, slugs.Change{}, err
	}

	var change slugs.Change
	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if post.ID != 0 {
			existing, err := tx.Post.GetByID(ctx, post.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return ErrNotFound
			}
			*post = *existing
		}

		category, err := tx.Category.GetByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return invalid([]models.ValidationError{{
				Field:   "category_id",
				Message: "category does not exist",
				Value:   in.CategoryID,
			}})
		}

		post.Title = strings.TrimSpace(in.Title)
		post.CategoryID = in.CategoryID
		post.Body = in.Body

		change, err = s.hook.Save(ctx, tx.Post, tx.SlugSwap, post, func(ctx context.Context) error {
			if post.ID == 0 {
				return tx.Post.Create(ctx, post)
			}
			return tx.Post.Update(ctx, post)
		})
		return err
	})
	if err != nil {
		return nil, slugs.Change{}, err
	}

	event := s.log.Info().Int64("post_id", post.ID).Int64("category_id", post.CategoryID).Str("slug", post.Slug)
	if change.Changed {
		event = event.Str("old_slug", change.Previous)
	}
	event.Msg("Post saved")

	return post, change, nil
}

// Delete removes a post and its ledger rows
func (s *postService) Delete(ctx context.Context, id int64) error {
	var removed int64
	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		n, err := tx.SlugSwap.DeleteByOwner(ctx, models.OwnerRef{Type: models.PostType, ID: id})
		if err != nil {
			return err
		}
		removed = n

		deleted, err := tx.Post.Delete(ctx, id)
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

	s.log.Info().Int64("post_id", id).Int64("slug_swaps_removed", removed).Msg("Post deleted")
	return nil
}

// GetByID retrieves a post by ID
func (s *postService) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// GetBySlugs resolves a post by its category slug and its own slug
func (s *postService) GetBySlugs(ctx context.Context, categorySlug, postSlug string) (*models.Post, error) {
	category, err := s.repos.Category.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}

	post, err := s.repos.Post.GetBySlug(ctx, category.ID, postSlug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}
