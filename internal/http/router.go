// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
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

	_ "github.com/tbourn/go-creative-marketplace/docs" // registers the OpenAPI document
	"github.com/tbourn/go-creative-marketplace/internal/auth"
	"github.com/tbourn/go-creative-marketplace/internal/config"
	"github.com/tbourn/go-creative-marketplace/internal/domain"
	"github.com/tbourn/go-creative-marketplace/internal/http/handlers"
	"github.com/tbourn/go-creative-marketplace/internal/http/middleware"
	"github.com/tbourn/go-creative-marketplace/internal/mailer"
	"github.com/tbourn/go-creative-marketplace/internal/notify"
	"github.com/tbourn/go-creative-marketplace/internal/services"
)

// Deps carries the collaborators built by the process entrypoint. Nil fields
// get working defaults: tokens from cfg.Auth, OTP codes written to the log,
// and no chat fan-out.
type Deps struct {
	Tokens    *auth.Manager
	Mailer    mailer.Sender
	Publisher notify.Publisher
}

// corsAllowHeaders and corsExposeHeaders are shared by both CORS branches.
var (
	corsAllowHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		"If-None-Match", middleware.HeaderIdempotencyKey,
	}
	corsExposeHeaders = []string{
		"X-Request-ID", "Content-Length", "ETag", "Retry-After",
		middleware.HeaderIdempotencyReplayed,
	}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, CORS
// and security headers, authentication, idempotency and rate limiting,
// health, metrics and docs endpoints, and then mounts the marketplace API
// under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip
//  7. Metrics
//  8. CORS and Security headers
//  9. Authenticate: resolve the bearer token (anonymous stays anonymous)
//  10. Idempotency validator (before rate limiter to allow bypass on replay)
//  11. Rate limiter (per user/IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true

	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)
	}
	sender := deps.Mailer
	if sender == nil {
		sender = mailer.LogSender{}
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskParams: []string{"otp"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(limitBody(maxBody))

	// 6) Compress JSON responses; the scrape endpoint negotiates its own
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
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
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS);
	// credential responses are never cached.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStoreSuffixes: []string{"/login", "/register", "/verify-email", "/resend-otp"},
		EnablePolicy:    true,
	}))

	// 9) Bearer token → userID/role in context
	r.Use(middleware.Authenticate(tokens))

	// 10) Idempotency validation (before rate limiting)
	idemSvc := &services.IdempotencyService{DB: db, TTL: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idemSvc.Lookup))

	// 11) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/mailer/tokens/publisher
	h := handlers.New(handlers.Deps{
		Accounts: &services.AccountService{
			DB:     db,
			Mailer: sender,
			Tokens: tokens,
			OTPTTL: cfg.Auth.OTPTTL,
		},
		Catalog:      &services.CatalogService{DB: db},
		Creatives:    &services.CreativeService{DB: db},
		Interests:    &services.InterestService{DB: db},
		Bookings:     &services.BookingService{DB: db},
		Contracts:    &services.ContractService{DB: db},
		Chat:         services.NewChatService(db, deps.Publisher),
		Commerce:     &services.CommerceService{DB: db},
		Idempotency:  idemSvc,
		MediaBaseURL: cfg.MediaBaseURL,
	})

	// Credential endpoints share a stricter IP-keyed bucket.
	authRL := middleware.NewRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst, middleware.KeyByIP())
	strict := authRL.Handler()

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Accounts
		api.POST("/register", h.Register)
		api.POST("/login", strict, h.Login)
		api.POST("/verify-email", strict, h.VerifyEmail)
		api.POST("/resend-otp", strict, h.ResendOTP)

		// Catalog and discovery
		api.GET("/industries", h.ListIndustries)
		api.GET("/subcategories", h.ListSubCategories)
		api.GET("/creatives", h.ListCreatives)
		api.GET("/creatives/recommended", h.RecommendedCreatives)
		api.GET("/creative-profile", h.GetCreativeProfile)
		api.GET("/service-packages", h.ListServicePackages)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
	}

	authed := api.Group("", middleware.RequireAuth())
	{
		// Creatives
		authed.POST("/save-interests", h.SaveInterests)
		authed.POST("/create-profile", h.CreateProfile)
		authed.POST("/service-packages", h.CreateServicePackage)

		// Products and orders
		authed.POST("/products", h.CreateProduct)
		authed.PUT("/products/:id", h.UpdateProduct)
		authed.PATCH("/products/:id", h.UpdateProduct)
		authed.DELETE("/products/:id", h.DeleteProduct)
		authed.GET("/orders", h.ListOrders)
		authed.POST("/orders", h.CreateOrder)
		authed.GET("/orders/:id", h.GetOrder)
		authed.PUT("/orders/:id", h.UpdateOrder)
		authed.PATCH("/orders/:id", h.UpdateOrder)
		authed.DELETE("/orders/:id", h.DeleteOrder)

		// Bookings
		authed.POST("/bookings", h.CreateBooking)
		authed.GET("/my-bookings", h.ListBookings)
		authed.GET("/bookings/:id", h.GetBooking)
		authed.PUT("/bookings/:id", h.UpdateBooking)
		authed.PATCH("/bookings/:id", h.UpdateBooking)
		authed.DELETE("/bookings/:id", h.DeleteBooking)

		// Chat
		authed.GET("/bookings/:id/messages", h.ListBookingMessages)
		authed.POST("/bookings/:id/messages", h.PostBookingMessage)
		authed.GET("/messages", h.ListMessages)
		authed.POST("/messages", h.PostMessage)

		// Contracts
		authed.GET("/contract/booking/:booking_id", h.GetContract)
		authed.POST("/contract/sign/:contract_id", h.SignContract)
	}

	admin := api.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/pending-creatives", h.PendingCreatives)
		admin.POST("/manage-creative/:id", h.ManageCreative)
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
