package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"WorkoutPlanner/internal/llm"
	"WorkoutPlanner/internal/utility"
)

// Error types reported in the "type" field of error bodies.
const (
	ErrTypeValidation       = "validation_failed"
	ErrTypeUpstream         = "upstream_unavailable"
	ErrTypeUpstreamTimeout  = "upstream_timeout"
	ErrTypeMalformedModel   = "malformed_model_response"
	ErrTypeServer           = "server_error"
	ErrTypeUnauthorized     = "unauthorized"
	ErrTypeRateLimited      = "rate_limited"
	ErrTypeNotFound         = "not_found"
	ErrTypeMethodNotAllowed = "method_not_allowed"
	ErrTypeTooLarge         = "request_too_large"
	ErrTypeBadRequest       = "bad_request"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Type   string       `json:"type"`
	Detail string       `json:"detail,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
}

// httpErrorHandler maps handler errors to status codes and ErrorResponse bodies.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		utility.GetLogger(c).Error().Err(err).Int("status", status).Str("type", body.Type).Msg("Request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		utility.GetLogger(c).Error().Err(writeErr).Msg("Failed to write error response")
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		verr      *ValidationError
		he        *echo.HTTPError
		exhausted *llm.ExhaustedError
		malformed *llm.MalformedResponseError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, ErrorResponse{Type: ErrTypeValidation, Detail: verr.Detail, Fields: verr.Fields}

	case errors.As(err, &he):
		return he.Code, ErrorResponse{Type: httpErrorType(he.Code), Detail: fmt.Sprint(he.Message)}

	case errors.As(err, &exhausted):
		return http.StatusBadGateway, ErrorResponse{
			Type:   ErrTypeUpstream,
			Detail: fmt.Sprintf("model provider failed after %d attempt(s)", exhausted.Attempts),
		}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Type: ErrTypeUpstreamTimeout, Detail: "model call timed out"}

	case errors.Is(err, llm.ErrUpstreamExhausted):
		return http.StatusBadGateway, ErrorResponse{Type: ErrTypeUpstream, Detail: "model provider unavailable"}

	case errors.As(err, &malformed):
		return http.StatusInternalServerError, ErrorResponse{Type: ErrTypeMalformedModel, Detail: malformed.Reason}

	case errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusInternalServerError, ErrorResponse{Type: ErrTypeMalformedModel}

	default:
		return http.StatusInternalServerError, ErrorResponse{Type: ErrTypeServer, Detail: http.StatusText(http.StatusInternalServerError)}
	}
}

func httpErrorType(code int) string {
	switch code {
	case http.StatusBadRequest:
		return ErrTypeBadRequest
	case http.StatusUnauthorized:
		return ErrTypeUnauthorized
	case http.StatusNotFound:
		return ErrTypeNotFound
	case http.StatusMethodNotAllowed:
		return ErrTypeMethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return ErrTypeTooLarge
	case http.StatusTooManyRequests:
		return ErrTypeRateLimited
	case http.StatusUnprocessableEntity:
		return ErrTypeValidation
	}
	if code >= http.StatusInternalServerError {
		return ErrTypeServer
	}
	return ErrTypeBadRequest
}
