package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/service"
	"github.com/slug-swap-api/internal/slugs"
)

// respondError maps service and storage errors to a status code and JSON body.
// Anything unrecognised is a 500 carrying an error_id that is also logged.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var inputErr *service.InputError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": inputErr.Errors})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, slugs.ErrUnslugifiable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "title does not produce a usable slug"})
	case errors.Is(err, service.ErrDuplicateTitle):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": false})
	case errors.Is(err, repository.ErrConflict):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Write conflict")
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting concurrent write, retry the request", "retryable": true})
	case errors.Is(err, service.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, log, err)
	}
}

func internalError(c *gin.Context, log zerolog.Logger, err error) {
	errorID := uuid.NewString()
	log.Error().
		Err(err).
		Str("error_id", errorID).
		Str("request_id", c.GetString(requestIDKey)).
		Str("path", c.Request.URL.Path).
		Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "error_id": errorID})
}

// paramID parses a positive integer path parameter, writing a 400 when it is not one
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
