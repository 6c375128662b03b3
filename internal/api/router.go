package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/service"
	"github.com/slug-swap-api/internal/slugs"
	"github.com/slug-swap-api/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, mapping *config.TypeMapping, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	redirector := slugs.NewRedirector(mapping, services.SlugSwap, newRouteReverser(router), log).
		WithScope(postScope{services: services, mapping: mapping})

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	router.Use(slugRedirect(redirector, log))

	// Handlers
	contentHandler := NewContentHandler(services, log)
	adminHandler := NewAdminHandler(services, log)
	slugSwapHandler := NewSlugSwapHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	// API v1
	v1 := router.Group("/v1")
	{
		// Public content, resolved by current slug
		v1.GET("/categories/:category_slug", contentHandler.GetCategory)
		v1.HEAD("/categories/:category_slug", contentHandler.GetCategory)
		v1.GET("/categories/:category_slug/posts/:post_slug", contentHandler.GetPost)
		v1.HEAD("/categories/:category_slug/posts/:post_slug", contentHandler.GetPost)

		admin := v1.Group("/admin")
		{
			categories := admin.Group("/categories")
			{
				categories.POST("", adminHandler.CreateCategory)
				categories.PUT("/:id", adminHandler.UpdateCategory)
				categories.DELETE("/:id", adminHandler.DeleteCategory)
				categories.GET("/:id/slug-history", adminHandler.CategoryHistory)
			}

			posts := admin.Group("/posts")
			{
				posts.POST("", adminHandler.CreatePost)
				posts.PUT("/:id", adminHandler.UpdatePost)
				posts.DELETE("/:id", adminHandler.DeletePost)
				posts.GET("/:id/slug-history", adminHandler.PostHistory)
			}

			swaps := admin.Group("/slug-swaps")
			{
				swaps.GET("", slugSwapHandler.List)
				swaps.GET("/export", slugSwapHandler.Export)
				swaps.POST("/reconcile", slugSwapHandler.Reconcile)
				swaps.PATCH("/:id", slugSwapHandler.SetRedirectClass)
				swaps.DELETE("/:id", slugSwapHandler.Delete)
			}
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   logger.ServiceName,
	})
}

// metricsHandler returns entity and ledger counts
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		categoriesCount, _ := services.Export.GetCount(ctx, "categories")
		postsCount, _ := services.Export.GetCount(ctx, "posts")
		swapsCount, _ := services.Export.GetCount(ctx, "slug_swaps")

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"categories": categoriesCount,
				"posts":      postsCount,
				"slug_swaps": swapsCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				errorID := uuid.NewString()
				log.Error().
					Interface("error", err).
					Str("error_id", errorID).
					Str("path", c.Request.URL.Path).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":    "Internal server error",
					"error_id": errorID,
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates X-Request-ID, generating one when absent
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request completed")
	}
}

// corsMiddleware allows the configured origins, or any origin when none are configured
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Location"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
