/*
Package config reads the service configuration from the environment.
A local .env file is loaded automatically when present.
*/
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"WorkoutPlanner/internal/llm"
	"WorkoutPlanner/internal/planner"
)

// Supported values of LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// writeTimeoutMargin is left for writing the response once a plan is ready.
const writeTimeoutMargin = 30 * time.Second

// Config holds every knob of the service.
type Config struct {
	Port int

	// Model provider.
	Provider      string
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiBaseURL string
	LLMTimeout    time.Duration

	// Retry policy.
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	ShapeRetries int

	Variant string

	JWTSecret string
	JWTIssuer string

	// PlanTimeout bounds one request end to end. Zero derives it from the
	// retry settings, see EffectivePlanTimeout.
	PlanTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	// Empty means the client address is always the TCP peer.
	TrustedProxies []string

	CORSOrigins []string

	// HTTPWriteTimeout of zero is derived from the plan timeout.
	HTTPWriteTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the environment. Malformed values fall back to their defaults;
// use Validate to catch settings the service cannot run with.
func Load() Config {
	return Config{
		Port:          getIntEnv("PORT", 8080),
		Provider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		Model:         os.Getenv("LLM_MODEL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", llm.DefaultGeminiBaseURL),
		LLMTimeout:    getDurationEnv("LLM_TIMEOUT", 60*time.Second),

		MaxAttempts:  getIntEnv("LLM_MAX_ATTEMPTS", 3),
		BackoffBase:  getDurationEnv("LLM_BACKOFF_BASE", time.Second),
		BackoffMax:   getDurationEnv("LLM_BACKOFF_MAX", 40*time.Second),
		ShapeRetries: getIntEnv("LLM_SHAPE_RETRIES", planner.DefaultShapeRetries),

		Variant: strings.ToLower(getEnv("WORKOUT_VARIANT", planner.VariantProfile)),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: os.Getenv("JWT_ISSUER"),

		PlanTimeout: getDurationEnv("PLAN_TIMEOUT", 0),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 5),
		TrustedProxies: getListEnv("TRUSTED_PROXIES", nil),

		CORSOrigins:      getListEnv("CORS_ORIGINS", []string{"*"}),
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 0),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
}

// Validate reports every problem that prevents the service from starting.
func (c Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)", c.Provider, ProviderOpenAI, ProviderGemini))
	}

	if err := planner.ValidateVariantName(c.Variant); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}
	if _, err := c.TrustedProxyRanges(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Warnings lists settings the service runs with but probably should not.
func (c Config) Warnings() []string {
	var warnings []string
	plan := c.EffectivePlanTimeout()
	if c.HTTPWriteTimeout > 0 && c.HTTPWriteTimeout <= plan {
		warnings = append(warnings, fmt.Sprintf(
			"HTTP_WRITE_TIMEOUT %s does not outlast the plan timeout %s; slow plans will be cut off without a response",
			c.HTTPWriteTimeout, plan))
	}
	if worst := c.WorstCasePlan(); c.PlanTimeout > 0 && c.PlanTimeout < worst {
		warnings = append(warnings, fmt.Sprintf(
			"PLAN_TIMEOUT %s is shorter than the %s the retry settings allow; late retries will answer 504",
			c.PlanTimeout, worst))
	}
	return warnings
}

// WorstCasePlan is the longest one plan takes when every model call runs
// into LLM_TIMEOUT and every backoff wait lands on its ceiling, across all
// shape retry rounds.
func (c Config) WorstCasePlan() time.Duration {
	rounds := max(c.ShapeRetries, 0) + 1
	return time.Duration(rounds) * c.RetryPolicy().MaxDuration(c.LLMTimeout)
}

// EffectivePlanTimeout is PLAN_TIMEOUT, or WorstCasePlan when unset.
func (c Config) EffectivePlanTimeout() time.Duration {
	if c.PlanTimeout > 0 {
		return c.PlanTimeout
	}
	return c.WorstCasePlan()
}

// WriteTimeout is HTTP_WRITE_TIMEOUT, or the plan timeout plus a margin
// for writing the response when unset.
func (c Config) WriteTimeout() time.Duration {
	if c.HTTPWriteTimeout > 0 {
		return c.HTTPWriteTimeout
	}
	return c.EffectivePlanTimeout() + writeTimeoutMargin
}

// TrustedProxyRanges parses TRUSTED_PROXIES. A bare address is a single host.
func (c Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	var ranges []*net.IPNet
	for _, entry := range c.TrustedProxies {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		ranges = append(ranges, ipNet)
	}
	return ranges, nil
}

// RetryPolicy is the invoker policy described by the LLM_* settings.
func (c Config) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BackoffBase,
		MaxDelay:    c.BackoffMax,
	}
}

// NewProvider builds the configured model provider.
func (c Config) NewProvider() (llm.Provider, error) {
	switch c.Provider {
	case ProviderOpenAI:
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  c.OpenAIAPIKey,
			BaseURL: c.OpenAIBaseURL,
			Model:   c.Model,
			Timeout: c.LLMTimeout,
		}), nil
	case ProviderGemini:
		return llm.NewGeminiProvider(llm.GeminiConfig{
			APIKey:  c.GeminiAPIKey,
			BaseURL: c.GeminiBaseURL,
			Model:   c.Model,
			Timeout: c.LLMTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
}

// AuthEnabled reports whether /workout routes require a bearer token.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" }

// RateLimitEnabled reports whether per-client rate limiting is on.
func (c Config) RateLimitEnabled() bool { return c.RateLimitRPS > 0 }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func getFloatEnv(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getListEnv(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
