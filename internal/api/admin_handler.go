package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/service"
)

// AdminHandler handles the category and post admin endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// CreateCategory handles POST /v1/admin/categories
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var in models.CategoryInput
	if !bindJSON(c, &in) {
		return
	}

	category, change, err := h.services.Category.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": category, "slug_change": change})
}

// UpdateCategory handles PUT /v1/admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.CategoryInput
	if !bindJSON(c, &in) {
		return
	}

	category, change, err := h.services.Category.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": category, "slug_change": change})
}

// DeleteCategory handles DELETE /v1/admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Category.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CategoryHistory handles GET /v1/admin/categories/:id/slug-history
func (h *AdminHandler) CategoryHistory(c *gin.Context) {
	h.history(c, models.CategoryType)
}

// CreatePost handles POST /v1/admin/posts
func (h *AdminHandler) CreatePost(c *gin.Context) {
	var in models.PostInput
	if !bindJSON(c, &in) {
		return
	}

	post, change, err := h.services.Post.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": post, "slug_change": change})
}

// UpdatePost handles PUT /v1/admin/posts/:id
func (h *AdminHandler) UpdatePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.PostInput
	if !bindJSON(c, &in) {
		return
	}

	post, change, err := h.services.Post.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": post, "slug_change": change})
}

// DeletePost handles DELETE /v1/admin/posts/:id
func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Post.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostHistory handles GET /v1/admin/posts/:id/slug-history
func (h *AdminHandler) PostHistory(c *gin.Context) {
	h.history(c, models.PostType)
}

func (h *AdminHandler) history(c *gin.Context, entityType string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	history, err := h.services.SlugSwap.History(c.Request.Context(), models.OwnerRef{Type: entityType, ID: id})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
