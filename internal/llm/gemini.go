package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"stuud-backend/config"
)

// GeminiClient talks to the Gemini generateContent endpoint.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewGemini creates a client for the Gemini API.
func NewGemini(cfg config.ProviderConfig, client *http.Client) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Name() string { return config.ProviderGemini }

func (c *GeminiClient) SendPrompt(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, promptRequest(prompt))
}

func (c *GeminiClient) SendPromptWithHistory(ctx context.Context, turns []Turn) (string, error) {
	return c.Complete(ctx, historyRequest(turns))
}

// Complete sends one generateContent request and returns the first candidate's text.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}

	contents := make([]geminiContent, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := t.Role
		switch role {
		case RoleSystem:
			system = append(system, t.Content)
			continue
		case RoleAssistant:
			role = RoleModel
		}
		contents = append(contents, geminiContent{Role: string(role), Parts: []geminiPart{{Text: t.Content}}})
	}

	body := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if len(system) > 0 {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}}}
	}
	if req.JSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	var resp geminiResponse
	if err := postJSON(ctx, c.client, endpoint, headers, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", &MalformedResponseError{}
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", &MalformedResponseError{}
	}
	return text.String(), nil
}

func (c *GeminiClient) Describe(err error) string {
	return fmt.Sprintf("%s %s.", GeminiMarker, err.Error())
}
