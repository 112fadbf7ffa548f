package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"WorkoutPlanner/internal/auth"
	"WorkoutPlanner/internal/config"
	"WorkoutPlanner/internal/llm"
	"WorkoutPlanner/internal/server"
)

const shutdownTimeout = 10 * time.Second

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "workout-planner").Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for `subject` and exit")
	tokenTTL := flag.Duration("token-ttl", auth.DefaultTokenDuration, "lifetime of the issued token")
	flag.Parse()

	cfg := config.Load()
	setupLogger(cfg)

	if *issueToken != "" {
		token, err := auth.GenerateToken(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, *issueToken, *tokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Unable to issue token (is JWT_SECRET set?)")
		}
		fmt.Println(token)
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	for _, warning := range cfg.Warnings() {
		log.Warn().Msg(warning)
	}

	provider, err := cfg.NewProvider()
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to create model provider")
	}
	invoker := llm.NewInvoker(provider, cfg.RetryPolicy())

	apiServer, err := server.NewServer(cfg, invoker)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to create server")
	}

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("addr", apiServer.Addr).
			Str("provider", provider.Name()).
			Str("default_variant", cfg.Variant).
			Bool("auth", cfg.AuthEnabled()).
			Bool("rate_limit", cfg.RateLimitEnabled()).
			Dur("plan_timeout", cfg.EffectivePlanTimeout()).
			Dur("write_timeout", apiServer.WriteTimeout).
			Msg("Server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
		stop() // Allow Ctrl+C to force shutdown

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Graceful shutdown complete.")
}
