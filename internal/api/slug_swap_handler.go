package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/service"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// SlugSwapHandler handles the ledger admin endpoints
type SlugSwapHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSlugSwapHandler creates a new SlugSwapHandler
func NewSlugSwapHandler(services *service.Services, log zerolog.Logger) *SlugSwapHandler {
	return &SlugSwapHandler{
		services: services,
		log:      log.With().Str("handler", "slug_swap").Logger(),
	}
}

func queryInt(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": name + " must be an integer between " + strconv.Itoa(min) + " and " + strconv.Itoa(max),
		})
		return 0, false
	}
	return v, true
}

// List handles GET /v1/admin/slug-swaps?type=&limit=&offset=
func (h *SlugSwapHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultListLimit, 1, maxListLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0, 0, int(^uint(0)>>1))
	if !ok {
		return
	}

	filter := models.SlugSwapFilter{EntityType: c.Query("type"), Limit: limit, Offset: offset}
	swaps, total, err := h.services.SlugSwap.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   swaps,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Export handles GET /v1/admin/slug-swaps/export?format=ndjson|json|csv
// Streams the ledger directly to the response
func (h *SlugSwapHandler) Export(c *gin.Context) {
	format := c.Query("format")
	if format == "" {
		format = "ndjson"
	}
	if format != "ndjson" && format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json, csv"})
		return
	}

	if err := h.services.Export.StreamSlugSwaps(c.Request.Context(), c.Writer, format); err != nil {
		if !c.Writer.Written() {
			respondError(c, h.log, err)
			return
		}
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
	}
}

// SetRedirectClass handles PATCH /v1/admin/slug-swaps/:id
func (h *SlugSwapHandler) SetRedirectClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.RedirectClassInput
	if !bindJSON(c, &in) {
		return
	}

	swap, err := h.services.SlugSwap.SetRedirectClass(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, swap)
}

// Delete handles DELETE /v1/admin/slug-swaps/:id
func (h *SlugSwapHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.services.SlugSwap.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reconcile handles POST /v1/admin/slug-swaps/reconcile
func (h *SlugSwapHandler) Reconcile(c *gin.Context) {
	pruned, err := h.services.Reconcile.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}
