package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/service"
)

// ContentHandler serves categories and posts by their current slugs
type ContentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(services *service.Services, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		services: services,
		log:      log.With().Str("handler", "content").Logger(),
	}
}

// GetCategory handles GET /v1/categories/:category_slug
func (h *ContentHandler) GetCategory(c *gin.Context) {
	category, err := h.services.Category.GetBySlug(c.Request.Context(), c.Param("category_slug"))
	if errors.Is(err, service.ErrNotFound) {
		respondMiss(c)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetPost handles GET /v1/categories/:category_slug/posts/:post_slug
func (h *ContentHandler) GetPost(c *gin.Context) {
	post, err := h.services.Post.GetBySlugs(c.Request.Context(), c.Param("category_slug"), c.Param("post_slug"))
	if errors.Is(err, service.ErrNotFound) {
		respondMiss(c)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
