package utility

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContextKeyLogger is where LoggerMiddleware stores the request-scoped logger.
const ContextKeyLogger = "logger"

// GetLogger returns the request-scoped logger, or the global one outside a request.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(ContextKeyLogger).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return &log.Logger
}
