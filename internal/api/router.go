package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Matfen2/daftlink-demo/docs"
	"github.com/Matfen2/daftlink-demo/internal/api/handler"
	"github.com/Matfen2/daftlink-demo/internal/api/middleware"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

// Dependencies is everything the HTTP layer needs. Registerer and Gatherer
// default to the global Prometheus registry when nil.
type Dependencies struct {
	Log           zerolog.Logger
	AuthService   ports.AuthService
	ChainService  ports.ChainService
	Authenticator ports.Authenticator
	Health        map[string]handler.DependencyCheck

	// Public engagement routes are limited per client IP.
	PublicRate  float64
	PublicBurst int

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.ChainService)
	chainHandler := handler.NewChainHandler(deps.ChainService)
	healthHandler := handler.NewHealthHandler(deps.Health)

	requireAuth := middleware.Auth(deps.Authenticator)
	optionalAuth := middleware.OptionalAuth(deps.Authenticator)
	publicLimit := middleware.RateLimit(deps.PublicRate, deps.PublicBurst)

	api := e.Group("/api")

	// --- Auth routes ---
	for _, prefix := range []string{"/auth", "/users"} {
		g := api.Group(prefix)
		g.POST("/register", authHandler.Register)
		g.POST("/login", authHandler.Login)
		g.GET("/me", authHandler.Me, requireAuth)
	}
	api.PUT("/auth/me", authHandler.UpdateMe, requireAuth)
	api.PUT("/auth/password", authHandler.UpdatePassword, requireAuth)
	api.GET("/auth/stats", authHandler.Stats, requireAuth)

	// --- Public chain routes ---
	chains := api.Group("/chains")
	chains.GET("/public/:username", chainHandler.Public, optionalAuth)
	chains.POST("/:id/view", chainHandler.View, publicLimit)
	chains.POST("/:id/click", chainHandler.Click, publicLimit)
	chains.POST("/:id/join", chainHandler.Join, publicLimit)

	// --- Owner chain routes ---
	chains.GET("", chainHandler.List, requireAuth)
	chains.POST("", chainHandler.Create, requireAuth)
	chains.PUT("/reorder", chainHandler.Reorder, requireAuth)
	chains.GET("/:id", chainHandler.Get, requireAuth)
	chains.PUT("/:id", chainHandler.Update, requireAuth)
	chains.DELETE("/:id", chainHandler.Delete, requireAuth)
	chains.POST("/:id/duplicate", chainHandler.Duplicate, requireAuth)
	chains.GET("/:id/stats", chainHandler.Stats, requireAuth)
	chains.PUT("/:id/featured", chainHandler.SetFeatured,
		requireAuth, middleware.RequirePlan(domain.PlanPro, domain.PlanEnterprise))

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
