package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"WorkoutPlanner/internal/observability"
)

// DefaultRequestTimeout bounds a single provider call when none is configured.
const DefaultRequestTimeout = 60 * time.Second

// RetryPolicy bounds how often and how patiently a provider call is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is three attempts with waits drawn from [0, 1s] then [0, 2s],
// growing up to a 40s ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    40 * time.Second,
	}
}

// WithDefaults replaces non-positive fields with those of DefaultRetryPolicy.
func (p RetryPolicy) WithDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// MaxDuration is the longest Complete can take when every attempt runs for
// attemptTimeout and every wait lands on its ceiling.
func (p RetryPolicy) MaxDuration(attemptTimeout time.Duration) time.Duration {
	p = p.WithDefaults()
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultRequestTimeout
	}

	total := time.Duration(p.MaxAttempts) * attemptTimeout
	b := &jitterBackOff{base: p.BaseDelay, max: p.MaxDelay, random: func() float64 { return 1 }}
	for range p.MaxAttempts - 1 {
		total += b.NextBackOff()
	}
	return total
}

// jitterBackOff waits a uniformly random time in [0, min(max, base*2^n)]
// before retry n+1.
type jitterBackOff struct {
	base    time.Duration
	max     time.Duration
	retries int
	random  func() float64
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	ceiling := b.base << b.retries
	if ceiling <= 0 || ceiling > b.max {
		ceiling = b.max
	}
	b.retries++
	return time.Duration(b.random() * float64(ceiling))
}

func (b *jitterBackOff) Reset() { b.retries = 0 }

// Invoker decorates a Provider with the retry policy.
type Invoker struct {
	provider Provider
	policy   RetryPolicy
	random   func() float64
}

// NewInvoker wraps provider. Non-positive policy fields fall back to DefaultRetryPolicy.
func NewInvoker(provider Provider, policy RetryPolicy) *Invoker {
	return &Invoker{provider: provider, policy: policy.WithDefaults(), random: rand.Float64}
}

// Provider returns the wrapped provider.
func (inv *Invoker) Provider() Provider { return inv.provider }

// Complete calls the provider until it succeeds, the attempts run out or ctx
// ends. Exhaustion yields an *ExhaustedError carrying the last provider error.
func (inv *Invoker) Complete(ctx context.Context, req ToolRequest) (*Completion, error) {
	logger := zerolog.Ctx(ctx)
	name := inv.provider.Name()

	var (
		completion *Completion
		attempts   int
		lastErr    error
	)

	operation := func() error {
		attempts++
		res, err := inv.provider.Complete(ctx, req)
		observability.RecordLLMAttempt(name, err)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		completion = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Str("provider", name).
			Int("attempt", attempts).
			Str("error_type", fmt.Sprintf("%T", err)).
			Err(err).
			Dur("retry_in", wait).
			Msg("Unable to generate chat completion, retrying")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&jitterBackOff{
			base:   inv.policy.BaseDelay,
			max:    inv.policy.MaxDelay,
			random: inv.random,
		}, uint64(inv.policy.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		logger.Error().
			Str("provider", name).
			Int("attempts", attempts).
			Str("error_type", fmt.Sprintf("%T", lastErr)).
			Err(lastErr).
			Msg("Unable to generate chat completion")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("model call interrupted after %d attempt(s): %w", attempts, ctxErr)
		}
		return nil, &ExhaustedError{Attempts: attempts, Err: lastErr}
	}

	logger.Debug().Str("provider", name).Int("attempts", attempts).Msg("Chat completion received")
	return completion, nil
}
