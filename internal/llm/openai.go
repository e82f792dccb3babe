package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"stuud-backend/config"
)

// OpenAIClient talks to an OpenAI-compatible /v1/chat/completions endpoint.
// The same client serves LM Studio (no key, unbounded max_tokens) and the OpenAI API.
type OpenAIClient struct {
	name   string
	marker string
	local  bool

	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewLocal creates a client for a locally hosted LM Studio server.
func NewLocal(cfg config.ProviderConfig, client *http.Client) *OpenAIClient {
	return &OpenAIClient{
		name:    config.ProviderLocal,
		marker:  LocalMarker,
		local:   true,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  client,
	}
}

// NewOpenAI creates a client for the OpenAI API.
func NewOpenAI(cfg config.ProviderConfig, client *http.Client) *OpenAIClient {
	return &OpenAIClient{
		name:    config.ProviderOpenAI,
		marker:  OpenAIMarker,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Turn          `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Name() string { return c.name }

func (c *OpenAIClient) SendPrompt(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, promptRequest(prompt))
}

func (c *OpenAIClient) SendPromptWithHistory(ctx context.Context, turns []Turn) (string, error) {
	return c.Complete(ctx, historyRequest(turns))
}

// Complete sends one chat-completion request and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]Turn, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, Turn{Role: RoleSystem, Content: req.System})
	}
	for _, t := range req.Turns {
		if t.Role == RoleModel {
			t.Role = RoleAssistant
		}
		messages = append(messages, t)
	}

	body := chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		Stream:      false,
	}
	switch {
	case req.MaxTokens > 0:
		maxTokens := req.MaxTokens
		body.MaxTokens = &maxTokens
	case c.local:
		// LM Studio reads -1 as "no limit".
		unlimited := -1
		body.MaxTokens = &unlimited
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var resp chatCompletionResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/v1/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil || *resp.Choices[0].Message.Content == "" {
		return "", &MalformedResponseError{}
	}
	return *resp.Choices[0].Message.Content, nil
}

// Describe renders err with this backend's failure marker.
func (c *OpenAIClient) Describe(err error) string {
	if c.local {
		return fmt.Sprintf("%s %s. Make sure LM Studio is running at %s.", c.marker, err.Error(), c.baseURL)
	}
	return fmt.Sprintf("%s %s.", c.marker, err.Error())
}
