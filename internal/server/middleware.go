package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"WorkoutPlanner/internal/utility"
)

// LoggerMiddleware tags the request with an ID, attaches a child logger to
// both the echo context and the request context, and writes one access line.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set(utility.ContextKeyLogger, &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		event := logger.Info()
		if res.Status >= 500 {
			event = logger.Error()
		} else if res.Status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", req.Method).
			Str("uri", req.RequestURI).
			Str("remote_ip", c.RealIP()).
			Int("status", res.Status).
			Int64("bytes_out", res.Size).
			Dur("latency", time.Since(start)).
			Msg("request")

		return nil
	}
}
