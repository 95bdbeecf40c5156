// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, error rendering, panic
// recovery, metrics, compression, CORS, security headers, authentication,
// idempotency, and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/auth"
	"github.com/tbourn/go-lifetrack-backend/internal/config"
	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
	"github.com/tbourn/go-lifetrack-backend/internal/http/handlers"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
)

// CodeMethodNotAllowed is reported for a known path with the wrong method.
const CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

// Deps are the collaborators the router wires into services and middleware.
type Deps struct {
	DB *gorm.DB
	// Verifier enables bearer-token authentication; nil means demo mode.
	Verifier *auth.Verifier
	// Redis, when set, backs the rate limiter so replicas share one budget.
	Redis redis.UniversalClient
	// Progress is reused by background jobs; built from DB when nil.
	Progress *services.ProgressService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Metrics: reads the final status, so it wraps ErrorHandler
//  5. Gzip, CORS and security headers: the error envelope is written through them
//  6. ErrorHandler: renders every error attached below it
//  7. Recovery: panics become errors for the handler above
//  8. Body size limiter
//
// Per API route: Authenticate, then the idempotency validator (progress
// logging only), the rate limiter, and the route's schema check.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 5) Compression, CORS and security headers
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 6) Error rendering; the classifier hides internals in production
	r.Use(middleware.ErrorHandler(apperr.Classifier{Production: cfg.IsProduction()}))

	// 7) Panic recovery
	r.Use(middleware.Recovery())

	// 8) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		middleware.Abort(c, apperr.NotFound("route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		envelope.Raw(c, http.StatusMethodNotAllowed, envelope.ErrorBody{
			Code:    CodeMethodNotAllowed,
			Message: "Method not allowed",
		})
	})

	// Liveness/readiness
	r.GET("/health", func(c *gin.Context) {
		envelope.OK(c, http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(deps.DB))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	progress := deps.Progress
	if progress == nil {
		progress = services.NewProgressService(deps.DB, cfg.IdempotencyTTL)
	}
	h := handlers.New(
		services.NewAreaService(deps.DB, repo.AreaStore{}),
		services.NewGoalService(deps.DB),
		progress,
		services.NewDashboardService(deps.DB),
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Authenticate(deps.Verifier))
	h.Register(api, handlers.Guards{
		Idempotency: middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, progress.Seen),
		RateLimit:   rateLimiter(deps.Redis, cfg),
	})
}

// rateLimiter prefers the shared Redis limiter and falls back to the
// in-process token bucket.
func rateLimiter(client redis.UniversalClient, cfg config.Config) gin.HandlerFunc {
	if client != nil {
		limit := cfg.RateBurst
		if rps := int(cfg.RateRPS); rps > limit {
			limit = rps
		}
		return middleware.NewRedisRateLimiter(client, limit, time.Second, middleware.KeyByUserOrIP()).Handler()
	}
	return middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler()
}

func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			middleware.HeaderUserID, middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders:    []string{envelope.RequestIDHeader, "Content-Length", "ETag", handlers.HeaderReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	// Echo ACAO with the request Origin when it is in the allowlist.
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// readiness pings the database.
func readiness(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			middleware.Abort(c, err)
			return
		}
		envelope.OK(c, http.StatusOK, gin.H{"status": "ready"})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
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
