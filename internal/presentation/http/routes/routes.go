package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/config"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/internal/presentation/http/handler"
	"github.com/sangkips/collection-desk/internal/presentation/http/middleware"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Book    *handler.BookHandler
	Summary *handler.SummaryHandler
	Posting *handler.PostingHandler
	Party   *handler.PartyHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	Logger          *zap.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
	Metrics         http.Handler
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	v1 := router.Group("/api/v1")
	v1.Use(rateLimiter(&deps.Cfg.RateLimit).Middleware())
	{
		registerBookRoutes(v1, h, deps)
		registerPartyRoutes(v1, h)
	}

	return router
}

func rateLimiter(cfg *config.RateLimitConfig) *middleware.ClientRateLimiter {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 && cfg.Duration > 0 {
		rl.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		rl.BurstSize = cfg.Requests
	}
	rl.CleanupInterval = 5 * time.Minute
	return middleware.NewClientRateLimiter(rl)
}

func registerBookRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	books := v1.Group("/books")
	{
		books.GET("", h.Book.List)
		books.POST("", h.Book.AllocateSingle)
		books.POST("/bulk", h.Book.AllocateBulk)
		books.GET("/inventory", h.Book.Inventory)
		books.POST("/ready", h.Book.MarkReady)
		books.POST("/inactive", h.Book.MarkInactive)
		books.POST("/assign", h.Book.Assign)

		books.GET("/:id", h.Book.Get)
		books.DELETE("/:id", h.Book.Delete)
		books.GET("/:id/entries", h.Book.History)
		books.GET("/:id/session", h.Book.OpenSession)
		books.POST("/:id/return", h.Book.Return)
		books.POST("/:id/reassign", h.Book.Reassign)
		books.POST("/:id/reready", h.Book.Reready)

		books.PUT("/:id/summary", h.Summary.Save)
		books.POST("/:id/summary/unlock", h.Summary.Unlock)
		books.POST("/:id/summary/compare", h.Summary.Compare)

		books.POST("/:id/submit",
			middleware.IdempotencyRequired(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}),
			h.Posting.Submit,
		)
	}
}

func registerPartyRoutes(v1 *gin.RouterGroup, h *Handlers) {
	parties := v1.Group("/parties")
	{
		parties.GET("", h.Party.List)
		parties.POST("", h.Party.Create)
	}
}
