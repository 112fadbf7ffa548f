package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"WorkoutPlanner/internal/auth"
	"WorkoutPlanner/internal/config"
	"WorkoutPlanner/internal/llm"
	"WorkoutPlanner/internal/planner"
	"WorkoutPlanner/internal/workout"
)

const modelArguments = `{"activities": [{"activityName": "Barbell Bench Press", "description": "Chest", "day": "Monday", "sets": 4, "reps": 6}]}`

const modelActivities = `[{"activityName": "Barbell Bench Press", "description": "Chest", "day": "Monday", "sets": 4, "reps": 6}]`

const validProfile = `{
  "sex": "Male",
  "weight": 80,
  "height": 180.5,
  "experienceLevelMap": {"weight_training": "Intermediate", "cycling": "No Interest", "running": "Beginner"}
}`

// stubCompleter answers every call with the same arguments or error.
type stubCompleter struct {
	mu        sync.Mutex
	arguments string
	err       error
	requests  []llm.ToolRequest
}

func (s *stubCompleter) Complete(_ context.Context, req llm.ToolRequest) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{ToolCalls: []llm.ToolCall{{Name: workout.ProgramToolName, Arguments: s.arguments}}}, nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func testConfig() config.Config {
	return config.Config{
		Provider:         config.ProviderOpenAI,
		Variant:          planner.VariantProfile,
		CORSOrigins:      []string{"*"},
		HTTPWriteTimeout: time.Minute,
	}
}

func newTestHandler(t *testing.T, cfg config.Config, completer planner.Completer) http.Handler {
	t.Helper()
	s, err := New(cfg, completer)
	require.NoError(t, err)
	return s.RegisterRoutes()
}

func post(h http.Handler, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestWorkoutProfileSuccess(t *testing.T) {
	stub := &stubCompleter{arguments: modelArguments}
	h := newTestHandler(t, testConfig(), stub)

	for _, path := range []string{"/workout", "/workout/profile"} {
		rec := post(h, path, validProfile)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, modelActivities, rec.Body.String())
		require.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	}

	require.Equal(t, 2, stub.calls())
	user := stub.requests[0].Messages[1].Content
	require.Equal(t,
		"sex='Male' weight=80.0 height=180.5 experienceLevelMap=ExperienceLevelMap(weight_training='Intermediate', cycling='No Interest', running='Beginner')",
		user)
}

func TestWorkoutReturnsModelArrayUnchanged(t *testing.T) {
	activities := `[{"activityName": "Deadlift", "description": "Posterior chain", "day": "Thursday", "sets": 4.0, "reps": 5.0}, {"activityName": "Walk", "description": "Recovery", "day": "Sunday"}]`
	stub := &stubCompleter{arguments: `{"activities": ` + activities + `}`}
	h := newTestHandler(t, testConfig(), stub)

	rec := post(h, "/workout", validProfile)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, activities, rec.Body.String())
	require.Equal(t, 1, stub.calls())
}

func TestWorkoutProfileAcceptsEmptyLabels(t *testing.T) {
	stub := &stubCompleter{arguments: modelArguments}
	h := newTestHandler(t, testConfig(), stub)

	rec := post(h, "/workout/profile", `{"sex": "Female", "weight": 58, "height": 163, "experienceLevelMap": {"weight_training": "", "cycling": "", "running": "Advanced"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, modelActivities, rec.Body.String())

	require.Equal(t, 1, stub.calls())
	require.Equal(t,
		"sex='Female' weight=58.0 height=163.0 experienceLevelMap=ExperienceLevelMap(weight_training='', cycling='', running='Advanced')",
		stub.requests[0].Messages[1].Content)
}

func TestWorkoutProfileValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []FieldError
	}{
		{
			name:       "missing weight",
			body:       `{"sex": "Male", "height": 180, "experienceLevelMap": {"weight_training": "a", "cycling": "b", "running": "c"}}`,
			wantFields: []FieldError{{Field: "weight", Reason: "required"}},
		},
		{
			name:       "unknown sex",
			body:       `{"sex": "Robot", "weight": 80, "height": 180, "experienceLevelMap": {"weight_training": "a", "cycling": "b", "running": "c"}}`,
			wantFields: []FieldError{{Field: "sex", Reason: "must be one of: Male, Female"}},
		},
		{
			name:       "non-numeric weight",
			body:       `{"sex": "Male", "weight": "eighty", "height": 180, "experienceLevelMap": {"weight_training": "a", "cycling": "b", "running": "c"}}`,
			wantFields: []FieldError{{Field: "weight", Reason: "must be a number, got string"}},
		},
		{
			name:       "missing nested level",
			body:       `{"sex": "Female", "weight": 60, "height": 165, "experienceLevelMap": {"weight_training": "a", "cycling": "b"}}`,
			wantFields: []FieldError{{Field: "experienceLevelMap.running", Reason: "required"}},
		},
		{
			name:       "null experience map",
			body:       `{"sex": "Female", "weight": 60, "height": 165, "experienceLevelMap": null}`,
			wantFields: []FieldError{{Field: "experienceLevelMap", Reason: "required"}},
		},
		{name: "syntax error", body: `{"sex": "Male",`},
		{name: "empty body", body: ``},
		{name: "array body", body: `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{arguments: modelArguments}
			h := newTestHandler(t, testConfig(), stub)

			rec := post(h, "/workout/profile", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			resp := errorBody(t, rec)
			require.Equal(t, ErrTypeValidation, resp.Type)
			require.NotEmpty(t, resp.Detail)
			require.Equal(t, tt.wantFields, resp.Fields)
			require.Zero(t, stub.calls(), "no model call on invalid input")
		})
	}
}

func TestWorkoutHistory(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{
			name:       "runner with data",
			body:       `{"athlete_type": "Runner", "data": {"avg_split": 5.1, "avg_distance": 12}, "description": "Marathon block"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "other without data",
			body:       `{"athlete_type": "Other", "description": "Bouldering three times a week"}`,
			wantStatus: http.StatusOK,
		},
		{
			// Other is only asked to leave data out, it is not enforced
			name:       "other with data",
			body:       `{"athlete_type": "Other", "data": {"avg_split": 1, "avg_distance": 2}, "description": "Rowing"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown athlete type",
			body:       `{"athlete_type": "Golfer", "description": "Eighteen holes"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "athlete_type",
		},
		{
			name:       "partial data",
			body:       `{"athlete_type": "Cyclist", "data": {"avg_split": 2.5}, "description": "Crit racing"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "data.avg_distance",
		},
		{
			name:       "empty description",
			body:       `{"athlete_type": "Swimmer", "description": ""}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing description",
			body:       `{"athlete_type": "Swimmer"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "description",
		},
		{
			name:       "null description",
			body:       `{"athlete_type": "Runner", "description": null}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{arguments: modelArguments}
			h := newTestHandler(t, testConfig(), stub)

			rec := post(h, "/workout/history", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				require.Equal(t, modelActivities, rec.Body.String())
				require.Equal(t, workout.HistorySystemPrompt, stub.requests[0].Messages[0].Content)
				return
			}
			resp := errorBody(t, rec)
			require.Equal(t, ErrTypeValidation, resp.Type)
			require.Len(t, resp.Fields, 1)
			require.Equal(t, tt.wantField, resp.Fields[0].Field)
			require.Zero(t, stub.calls())
		})
	}
}

func TestDefaultVariantHistory(t *testing.T) {
	cfg := testConfig()
	cfg.Variant = planner.VariantHistory
	stub := &stubCompleter{arguments: modelArguments}
	h := newTestHandler(t, cfg, stub)

	rec := post(h, "/workout", `{"athlete_type": "Other", "description": "Yoga"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = post(h, "/workout", validProfile)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnknownVariantRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Variant = "cardio"
	_, err := New(cfg, &stubCompleter{})
	require.Error(t, err)
}

func TestWorkoutUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		stub       *stubCompleter
		wantStatus int
		wantType   string
	}{
		{
			name:       "malformed arguments",
			stub:       &stubCompleter{arguments: `{"activities": "squats"}`},
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrTypeMalformedModel,
		},
		{
			name:       "arguments not json",
			stub:       &stubCompleter{arguments: `sure, here is your plan`},
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrTypeMalformedModel,
		},
		{
			name:       "retries exhausted",
			stub:       &stubCompleter{err: &llm.ExhaustedError{Attempts: 3, Err: &llm.StatusError{Provider: "openai", StatusCode: 503}}},
			wantStatus: http.StatusBadGateway,
			wantType:   ErrTypeUpstream,
		},
		{
			name:       "deadline",
			stub:       &stubCompleter{err: fmt.Errorf("model call interrupted after 1 attempt(s): %w", context.DeadlineExceeded)},
			wantStatus: http.StatusGatewayTimeout,
			wantType:   ErrTypeUpstreamTimeout,
		},
		{
			name:       "unexpected",
			stub:       &stubCompleter{err: errors.New("unsupported message role")},
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrTypeServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, testConfig(), tt.stub)

			rec := post(h, "/workout/profile", validProfile)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.Equal(t, tt.wantType, errorBody(t, rec).Type)
		})
	}
}

// stallingProvider never answers before the caller gives up.
type stallingProvider struct{}

func (stallingProvider) Name() string { return "stalling" }

func (stallingProvider) Complete(ctx context.Context, _ llm.ToolRequest) (*llm.Completion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWorkoutPlanTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.PlanTimeout = 20 * time.Millisecond
	invoker := llm.NewInvoker(stallingProvider{}, llm.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
	h := newTestHandler(t, cfg, invoker)

	start := time.Now()
	rec := post(h, "/workout/profile", validProfile)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
	require.Equal(t, ErrTypeUpstreamTimeout, errorBody(t, rec).Type)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestNewServerTimeouts(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPWriteTimeout = 0
	cfg.PlanTimeout = 2 * time.Minute

	srv, err := NewServer(cfg, &stubCompleter{})
	require.NoError(t, err)
	require.Equal(t, cfg.WriteTimeout(), srv.WriteTimeout)
	require.Greater(t, srv.WriteTimeout, cfg.PlanTimeout)
}

func TestWorkoutAuth(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "top-secret"
	cfg.JWTIssuer = "workout-planner"
	stub := &stubCompleter{arguments: modelArguments}
	h := newTestHandler(t, cfg, stub)

	rec := post(h, "/workout/profile", validProfile)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, ErrTypeUnauthorized, errorBody(t, rec).Type)

	token, err := auth.GenerateToken(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, "tester", time.Minute)
	require.NoError(t, err)

	rec = post(h, "/workout/profile", validProfile, echo.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, stub.calls())

	// operational routes stay open
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func postFrom(h http.Handler, remoteAddr, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/workout/profile", strings.NewReader(body))
	req.RemoteAddr = remoteAddr
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWorkoutRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	h := newTestHandler(t, cfg, &stubCompleter{arguments: modelArguments})

	rec := postFrom(h, "198.51.100.4:50000", validProfile)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postFrom(h, "198.51.100.4:50001", validProfile)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, ErrTypeRateLimited, errorBody(t, rec).Type)

	rec = postFrom(h, "198.51.100.5:50000", validProfile)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkoutRateLimitIgnoresClientHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	stub := &stubCompleter{arguments: modelArguments}
	h := newTestHandler(t, cfg, stub)

	for i := range 20 {
		rec := postFrom(h, "198.51.100.9:40000", validProfile,
			echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i+1),
			echo.HeaderXRealIP, fmt.Sprintf("203.0.113.%d", i+100))
		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code, "request %d", i+1)
	}
	require.Equal(t, 1, stub.calls())
}

func TestWorkoutRateLimitBehindTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	h := newTestHandler(t, cfg, &stubCompleter{arguments: modelArguments})

	// the proxy appends the peer it saw, clients are told apart by that hop
	rec := postFrom(h, "10.1.2.3:8080", validProfile, echo.HeaderXForwardedFor, "203.0.113.50")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postFrom(h, "10.1.2.3:8080", validProfile, echo.HeaderXForwardedFor, "203.0.113.51")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postFrom(h, "10.1.2.3:8080", validProfile, echo.HeaderXForwardedFor, "203.0.113.50")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// a spoofed leading entry does not help once the proxy appends the real peer
	rec = postFrom(h, "10.1.2.3:8080", validProfile, echo.HeaderXForwardedFor, "192.0.2.77, 203.0.113.50")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// an untrusted peer cannot claim to be someone else
	rec = postFrom(h, "198.51.100.30:1000", validProfile, echo.HeaderXForwardedFor, "203.0.113.99")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postFrom(h, "198.51.100.30:1000", validProfile, echo.HeaderXForwardedFor, "203.0.113.98")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestBadTrustedProxyRejected(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"not-a-network"}
	_, err := New(cfg, &stubCompleter{})
	require.Error(t, err)
}

func TestOperationalRoutes(t *testing.T) {
	h := newTestHandler(t, testConfig(), &stubCompleter{})

	get := func(path string, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/healthz", echo.HeaderXRequestID, "req-123")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = get("/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "online", health["status"])
	require.Contains(t, health, "runtime")

	rec = get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")

	rec = get("/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, ErrTypeNotFound, errorBody(t, rec).Type)
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
