/*
Package planner turns a validated intake into a weekly workout plan:
compose the conversation, call the model through the retrying invoker and
pull the activities out of the forced function call.
*/
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"WorkoutPlanner/internal/llm"
	"WorkoutPlanner/internal/observability"
	"WorkoutPlanner/internal/workout"
)

// DefaultShapeRetries is how many extra model calls a malformed reply earns.
const DefaultShapeRetries = 1

// Completer is satisfied by *llm.Invoker.
type Completer interface {
	Complete(ctx context.Context, req llm.ToolRequest) (*llm.Completion, error)
}

// Pipeline generates plans for one intake variant.
type Pipeline[T workout.Intake] struct {
	variant      Variant
	completer    Completer
	shapeRetries int
	timeout      time.Duration
}

// Option customises a Pipeline.
type Option func(*options)

type options struct {
	shapeRetries int
	timeout      time.Duration
}

// WithShapeRetries sets the number of extra invoke+extract rounds after a
// malformed reply. Negative values are treated as zero.
func WithShapeRetries(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.shapeRetries = n
	}
}

// WithTimeout bounds each Generate call, retries included. Zero means the
// caller's context is the only limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = max(d, 0)
	}
}

// New builds a pipeline for variant on top of completer.
func New[T workout.Intake](variant Variant, completer Completer, opts ...Option) *Pipeline[T] {
	o := options{shapeRetries: DefaultShapeRetries}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[T]{variant: variant, completer: completer, shapeRetries: o.shapeRetries, timeout: o.timeout}
}

// Variant returns the parameters of the pipeline.
func (p *Pipeline[T]) Variant() Variant { return p.variant }

// Compose builds the two-message conversation for intake.
func (p *Pipeline[T]) Compose(intake T) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: p.variant.SystemPrompt},
		{Role: llm.RoleUser, Content: intake.String()},
	}
}

// Generate returns the activities array for intake exactly as the model wrote it.
func (p *Pipeline[T]) Generate(ctx context.Context, intake T) (json.RawMessage, error) {
	logger := zerolog.Ctx(ctx).With().Str("variant", p.variant.Name).Logger()
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req := llm.ToolRequest{Messages: p.Compose(intake), Tool: p.variant.Tool}

	var (
		activities json.RawMessage
		err        error
	)
	for round := 0; round <= p.shapeRetries; round++ {
		var completion *llm.Completion
		completion, err = p.completer.Complete(ctx, req)
		if err != nil {
			break
		}
		activities, err = llm.ExtractActivities(completion)
		if err == nil || !errors.Is(err, llm.ErrMalformedResponse) {
			break
		}
		logger.Warn().Err(err).Int("round", round+1).Msg("Model reply had the wrong shape")
	}

	elapsed := time.Since(start)
	outcome := Outcome(err)
	observability.RecordPlan(p.variant.Name, outcome, elapsed)

	if err != nil {
		logger.Error().Err(err).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("Workout plan generation failed")
		return nil, err
	}
	logger.Info().Dur("elapsed", elapsed).Int("bytes", len(activities)).Msg("Workout plan generated")
	return activities, nil
}

// Outcome classifies a Generate error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, llm.ErrUpstreamExhausted):
		return observability.OutcomeUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeTimeout
	case errors.Is(err, llm.ErrMalformedResponse):
		return observability.OutcomeMalformed
	default:
		return observability.OutcomeError
	}
}
