package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/ingredients"
	"github.com/impactys/foodgram/pkg/foodgram/logging"
	"github.com/impactys/foodgram/pkg/foodgram/media"
	"github.com/impactys/foodgram/pkg/foodgram/pagination"
	"github.com/impactys/foodgram/pkg/foodgram/projection"
	"github.com/impactys/foodgram/pkg/foodgram/recipes"
	"github.com/impactys/foodgram/pkg/foodgram/tags"
	"github.com/impactys/foodgram/pkg/foodgram/users"
)

// corsMiddleware allows the configured origins. A "*" entry allows any
// origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", logging.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", logging.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		if len(origins) == 0 {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = origins
		}
	}

	return cors.New(cfg)
}

// NewRouter assembles the HTTP surface: health check, media files and the
// /api routes.
func NewRouter(cfg config.Config, db *gorm.DB, log *zap.Logger, store *media.Store) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(log), gin.Recovery(), corsMiddleware(cfg.Server.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Media.URLPrefix != "" {
		r.Static(cfg.Media.URLPrefix, cfg.Media.Root)
	}

	render := projection.NewRenderer(db, store)
	paginator := pagination.New(cfg.Pagination, cfg.Server.BaseURL)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "foodgram",
			})
		})

		// Login must not trip over a stale token the client still sends.
		authHandler := auth.NewHandler(db, log)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Everything else resolves the viewer when a token is present.
		viewer := api.Group("", auth.OptionalAuthMiddleware())

		usersHandler := users.NewHandler(db, log, render, paginator)
		usersHandler.RegisterRoutes(viewer)

		tagsHandler := tags.NewHandler(db, log)
		tagsHandler.RegisterRoutes(viewer)

		ingredientsHandler := ingredients.NewHandler(db, log)
		ingredientsHandler.RegisterRoutes(viewer)

		recipesHandler := recipes.NewHandler(db, log, render, paginator, store)
		recipesHandler.RegisterRoutes(viewer)
	}

	return r
}
