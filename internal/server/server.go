/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the plan
pipelines, request validation and optional guards into the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"WorkoutPlanner/internal/config"
	"WorkoutPlanner/internal/planner"
	"WorkoutPlanner/internal/ratelimit"
	"WorkoutPlanner/internal/workout"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	cfg config.Config

	// One pipeline per intake variant, sharing the same completer.
	profile *planner.Pipeline[workout.ProfileIntake]
	history *planner.Pipeline[workout.HistoryIntake]

	// limiter is nil when rate limiting is disabled.
	limiter *ratelimit.Limiter

	// ipExtractor decides what c.RealIP() returns.
	ipExtractor echo.IPExtractor

	startTime time.Time
}

// New builds the application around completer, normally an *llm.Invoker.
func New(cfg config.Config, completer planner.Completer) (*Server, error) {
	if err := planner.ValidateVariantName(cfg.Variant); err != nil {
		return nil, err
	}

	ipExtractor, err := newIPExtractor(cfg)
	if err != nil {
		return nil, err
	}

	opts := []planner.Option{
		planner.WithShapeRetries(cfg.ShapeRetries),
		planner.WithTimeout(cfg.EffectivePlanTimeout()),
	}
	s := &Server{
		port:        cfg.Port,
		cfg:         cfg,
		profile:     planner.New[workout.ProfileIntake](planner.ProfileVariant(), completer, opts...),
		history:     planner.New[workout.HistoryIntake](planner.HistoryVariant(), completer, opts...),
		ipExtractor: ipExtractor,
		startTime:   time.Now(),
	}

	if cfg.RateLimitEnabled() {
		limiter, err := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		s.limiter = limiter
	}

	return s, nil
}

// newIPExtractor keys clients on the TCP peer. X-Forwarded-For is only read
// when the peer is one of the configured trusted proxies, and then only up
// to the first hop that is not.
func newIPExtractor(cfg config.Config) (echo.IPExtractor, error) {
	ranges, err := cfg.TrustedProxyRanges()
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	trust := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		trust = append(trust, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(trust...), nil
}

// NewServer returns a configured *http.Server. The write timeout has to
// outlast the plan timeout, so it is much longer than the read timeout.
func NewServer(cfg config.Config, completer planner.Completer) (*http.Server, error) {
	app, err := New(cfg, completer)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
	}, nil
}
