package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/api/handler"
	"github.com/mesavista/storefront-core/internal/api/middleware"
	"github.com/mesavista/storefront-core/internal/api/runtime"
	"github.com/mesavista/storefront-core/internal/core/ports"
)

// RouterConfig carries the few settings the HTTP surface needs.
type RouterConfig struct {
	SessionSecret string
	CookieTTL     time.Duration
}

// NewRouter builds and returns the Echo instance with all routes registered.
// probe is a shared backend transport used only by the readiness check; rdb
// may be nil when Redis does not back the session store.
func NewRouter(cfg RouterConfig, runtimes *runtime.Manager, probe ports.Transport, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("storefront"))

	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(probe, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Session-scoped API ---
	authHandler := handler.NewAuthHandler(runtimes)
	cartHandler := handler.NewCartHandler(runtimes)

	api := e.Group("/api", middleware.BrowserSession(cfg.SessionSecret, cfg.CookieTTL))

	api.GET("/session", authHandler.Session)
	api.POST("/session/login", authHandler.Login)
	api.POST("/session/admin-login", authHandler.AdminLogin)
	api.POST("/session/logout", authHandler.Logout)

	api.GET("/cart", cartHandler.GetCart)
	api.POST("/cart/items", cartHandler.AddItem)
	api.PATCH("/cart/items/:dish_id", cartHandler.UpdateQuantity)
	api.DELETE("/cart/items/:dish_id", cartHandler.RemoveItem)
	api.DELETE("/cart", cartHandler.ClearCart)

	return e
}
