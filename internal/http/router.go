// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/config"
	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/http/handlers"
	"github.com/screenlog/go-review-backend/internal/http/middleware"
	"github.com/screenlog/go-review-backend/internal/repo"
	"github.com/screenlog/go-review-backend/internal/services"
)

// movieRepoShim adapts the repository free functions to the services.MovieRepo
// interface expected by the MovieService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type movieRepoShim struct{}

// CreateMovie proxies repo.CreateMovie.
func (movieRepoShim) CreateMovie(ctx context.Context, db *gorm.DB, f repo.MovieFields) (*domain.Movie, error) {
	return repo.CreateMovie(ctx, db, f)
}

// GetMovie proxies repo.GetMovie.
func (movieRepoShim) GetMovie(ctx context.Context, db *gorm.DB, id string) (*domain.Movie, error) {
	return repo.GetMovie(ctx, db, id)
}

// CountMovies proxies repo.CountMovies (pagination support).
func (movieRepoShim) CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountMovies(ctx, db)
}

// ListMoviesPage proxies repo.ListMoviesPage (pagination support).
func (movieRepoShim) ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Movie, error) {
	return repo.ListMoviesPage(ctx, db, offset, limit)
}

// UpdateMovie proxies repo.UpdateMovie.
func (movieRepoShim) UpdateMovie(ctx context.Context, db *gorm.DB, id string, f repo.MovieFields) error {
	return repo.UpdateMovie(ctx, db, id, f)
}

// DeleteMovie proxies repo.DeleteMovie.
func (movieRepoShim) DeleteMovie(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteMovie(ctx, db, id)
}

// CountReviewsByMovie proxies repo.CountReviewsByMovie.
func (movieRepoShim) CountReviewsByMovie(ctx context.Context, db *gorm.DB, movieID string) (int64, error) {
	return repo.CountReviewsByMovie(ctx, db, movieID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, response compression, health and metrics endpoints,
// and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression
//  8. Rate limiter (per user/IP)
//  9. CORS and Security headers
//  10. CurrentUser: resolve X-User-ID into an account
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; the longest legal review is ~100 KiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress responses (review lists are text-heavy)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 10) Resolve the acting account from X-User-ID
	r.Use(middleware.CurrentUser(db))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Interactive API docs (disabled by default in production)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	movieSvc := services.NewMovieService(db, movieRepoShim{})
	reviewSvc := &services.ReviewService{DB: db}
	userSvc := &services.UserService{DB: db, BcryptCost: cfg.BcryptCost}
	h := handlers.New(movieSvc, reviewSvc, userSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Movies
		api.GET("/movies", h.ListMovies)
		api.POST("/movies", h.CreateMovie)
		api.GET("/movies/search", h.SearchMovies)
		api.GET("/movies/:id", h.GetMovie)
		api.PUT("/movies/:id", h.UpdateMovie)
		api.DELETE("/movies/:id", h.DeleteMovie)

		// Reviews
		api.GET("/movies/:id/reviews", h.ListReviews)
		api.POST("/movies/:id/reviews", h.CreateReview)
		api.GET("/movies/:id/reviews/new", h.NewReview)
		api.GET("/reviews/:id", h.GetReview)
		api.PUT("/reviews/:id", h.UpdateReview)
		api.DELETE("/reviews/:id", h.DeleteReview)

		// Users
		api.POST("/users", h.Register)
		api.POST("/login", h.Login)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeleteUser)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
