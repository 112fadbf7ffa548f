package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"WorkoutPlanner/internal/observability"
	"WorkoutPlanner/internal/planner"
	"WorkoutPlanner/internal/workout"
)

// handleWorkout serves one intake variant: validate, generate, respond with
// the activities array as the model wrote it.
func handleWorkout[T workout.Intake](p *planner.Pipeline[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		var intake T
		if err := bindIntake(c, &intake); err != nil {
			observability.RecordPlan(p.Variant().Name, observability.OutcomeValidation, 0)
			return err
		}

		activities, err := p.Generate(c.Request().Context(), intake)
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, activities)
	}
}

// bindIntake decodes the JSON body into dst and validates it. Every failure
// is a *ValidationError. Unknown fields are ignored.
func bindIntake(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := c.Validate(dst); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return &ValidationError{Detail: err.Error()}
	}
	return nil
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &httpErr):
		// body limit exceeded while reading
		return httpErr
	case errors.Is(err, io.EOF):
		return &ValidationError{Detail: "request body is empty"}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &ValidationError{Detail: "request body is truncated JSON"}
	case errors.As(err, &syntaxErr):
		return &ValidationError{Detail: fmt.Sprintf("request body is not valid JSON (offset %d)", syntaxErr.Offset)}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &ValidationError{Detail: "request body must be a JSON object"}
		}
		return &ValidationError{
			Detail: "request body has a field of the wrong type",
			Fields: []FieldError{{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("must be %s, got %s", jsonKind(typeErr.Type.Kind().String()), typeErr.Value),
			}},
		}
	default:
		return &ValidationError{Detail: "request body could not be decoded: " + err.Error()}
	}
}

// jsonKind names a Go kind the way a JSON client thinks of it.
func jsonKind(kind string) string {
	switch kind {
	case "float32", "float64", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return "a number"
	case "string":
		return "a string"
	case "bool":
		return "a boolean"
	case "slice", "array":
		return "an array"
	case "struct", "map":
		return "an object"
	default:
		return kind
	}
}
