// Package routes assembles the HTTP API
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/routes/duplicate"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/matchrule"
	"github.com/Ramsey-B/clover/pkg/routes/merge"
	"github.com/Ramsey-B/clover/pkg/routes/session"
)

// RouterConfig holds what the HTTP API needs
type RouterConfig struct {
	ServiceName  string
	AllowOrigins []string
	AllowMethods []string
	Tracing      bool
}

// NewRouter builds the echo instance serving the dedupe API under /api/v1
func NewRouter(cfg RouterConfig, logger ectologger.Logger, service *dedupe.Service, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	if cfg.Tracing {
		e.Use(otelecho.Middleware(cfg.ServiceName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	if len(cfg.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: cfg.AllowMethods,
		}))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if checker != nil {
		checker.RegisterRoutes(e)
	}

	api := e.Group("/api/v1")
	matchrule.NewHandler(service).Register(api.Group("/rules"))
	duplicate.NewHandler(service).Register(api.Group("/duplicates"))
	merge.NewHandler(service).Register(api.Group("/merges"))
	session.NewHandler(service).Register(api.Group("/session"))

	return e
}
