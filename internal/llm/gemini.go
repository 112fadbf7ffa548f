package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// --- Gemini API Configuration ---
const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	maxErrorBodyBytes    = 4 << 10
)

// --- Structs for Gemini API Request/Response ---

type geminiPayload struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Tools             []geminiTool    `json:"tools,omitempty"`
	ToolConfig        *geminiToolConf `json:"toolConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Parameters  *GeminiSchema `json:"parameters,omitempty"`
}

type geminiToolConf struct {
	FunctionCallingConfig geminiFunctionCallingConfig `json:"functionCallingConfig"`
}

type geminiFunctionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

type geminiResponse struct {
	ModelVersion string `json:"modelVersion"`
	Candidates   []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// GeminiConfig configures a GeminiProvider.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GeminiProvider implements Provider against the Gemini generateContent REST API.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiProvider builds a provider with defaults for unset fields.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &GeminiProvider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Complete implements Provider. Function calling runs in ANY mode restricted
// to req.Tool.Name, which forces exactly that function.
func (p *GeminiProvider) Complete(ctx context.Context, req ToolRequest) (*Completion, error) {
	parameters, err := ToGeminiSchema(req.Tool.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s schema: %w", req.Tool.Name, err)
	}

	payload := geminiPayload{
		Tools: []geminiTool{{
			FunctionDeclarations: []geminiFunctionDeclaration{{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  parameters,
			}},
		}},
		ToolConfig: &geminiToolConf{
			FunctionCallingConfig: geminiFunctionCallingConfig{
				Mode:                 "ANY",
				AllowedFunctionNames: []string{req.Tool.Name},
			},
		},
	}

	var system []geminiPart
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, geminiPart{Text: m.Content})
		case RoleUser:
			payload.Contents = append(payload.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	if len(system) > 0 {
		payload.SystemInstruction = &geminiContent{Parts: system}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	completion := &Completion{Model: geminiResp.ModelVersion}
	if len(geminiResp.Candidates) == 0 {
		return completion, nil
	}

	candidate := geminiResp.Candidates[0]
	completion.FinishReason = candidate.FinishReason
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall == nil {
			continue
		}
		args := string(part.FunctionCall.Args)
		if args == "" {
			args = "{}"
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			Name:      part.FunctionCall.Name,
			Arguments: args,
		})
	}
	return completion, nil
}
