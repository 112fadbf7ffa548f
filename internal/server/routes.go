package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"WorkoutPlanner/internal/auth"
	"WorkoutPlanner/internal/planner"
)

// maxBodySize caps intake payloads; a real intake is a few hundred bytes.
const maxBodySize = "64K"

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = s.httpErrorHandler
	e.IPExtractor = s.ipExtractor

	e.Use(LoggerMiddleware)
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		MaxAge:       300,
	}))
	e.Use(middleware.BodyLimit(maxBodySize))

	// Operational routes
	e.GET("/healthz", s.livenessHandler)
	e.GET("/health", s.healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Plan routes, guarded when limits or auth are configured
	var guards []echo.MiddlewareFunc
	if s.limiter != nil {
		guards = append(guards, s.limiter.Middleware())
	}
	if s.cfg.AuthEnabled() {
		guards = append(guards, auth.Middleware(auth.Config{Secret: s.cfg.JWTSecret, Issuer: s.cfg.JWTIssuer}))
	}

	profile := handleWorkout(s.profile)
	history := handleWorkout(s.history)

	e.POST("/workout/profile", profile, guards...)
	e.POST("/workout/history", history, guards...)

	switch s.cfg.Variant {
	case planner.VariantHistory:
		e.POST("/workout", history, guards...)
	default:
		e.POST("/workout", profile, guards...)
	}

	return e
}

func (s *Server) livenessHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
