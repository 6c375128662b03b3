package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/service"
	"github.com/slug-swap-api/internal/slugs"
)

// respondMiss marks a public lookup as not found without writing a body, leaving the
// response to slugRedirect
func respondMiss(c *gin.Context) {
	c.Status(http.StatusNotFound)
}

// slugRedirect turns unwritten 404 responses into redirects when the request carried
// stale slugs. Every other 404 gets the JSON not-found body.
func slugRedirect(redirector *slugs.Redirector, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() != http.StatusNotFound || c.Writer.Written() {
			return
		}

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			params := make(map[string]string, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}

			out := redirector.Resolve(c.Request.Context(), slugs.RouteMiss{Name: c.FullPath(), Params: params})
			if out.Decision == slugs.Redirect {
				code := http.StatusFound
				if out.Class == models.RedirectPermanent {
					code = http.StatusMovedPermanently
				}
				location := out.URL
				if q := c.Request.URL.RawQuery; q != "" {
					location += "?" + q
				}

				log.Debug().
					Str("from", c.Request.URL.Path).
					Str("to", location).
					Int("status", code).
					Msg("Stale slug redirected")
				c.Redirect(code, location)
				return
			}
		}

		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	}
}

// postScope checks that a swapped post still sits under the category named in the
// route. Post slugs are unique per category, so a post ledger row may belong to a post
// in another category.
type postScope struct {
	services *service.Services
	mapping  *config.TypeMapping
}

func (s postScope) InScope(ctx context.Context, owner models.OwnerRef, params map[string]string) (bool, error) {
	if owner.Type != models.PostType {
		return true, nil
	}

	var categorySlug string
	for _, b := range s.mapping.Bindings() {
		if b.EntityType == models.CategoryType && params[b.Param] != "" {
			categorySlug = params[b.Param]
			break
		}
	}
	if categorySlug == "" {
		return true, nil
	}

	post, err := s.services.Post.GetByID(ctx, owner.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	category, err := s.services.Category.GetByID(ctx, post.CategoryID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return category.Slug == categorySlug, nil
}
