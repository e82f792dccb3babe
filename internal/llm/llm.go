// Package llm holds the chat-completion backends: a locally hosted
// OpenAI-compatible server (LM Studio), the OpenAI API and the Gemini API.
//
// Every backend performs exactly one HTTP exchange per call. There are no
// retries and no streaming. Failures come back as typed errors
// (*UpstreamError, *MalformedResponseError, *ConnectionError); Describe turns
// them into the user-facing text at the UI boundary.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stuud-backend/config"
)

// SystemPrompt is the fixed instruction sent with every single-prompt call.
const SystemPrompt = "You are a helpful college assistant."

// DefaultTemperature is the sampling temperature used by SendPrompt and SendPromptWithHistory.
const DefaultTemperature = 0.7

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleModel is the assistant role in Gemini's vocabulary.
	RoleModel Role = "model"
)

// Turn is one role-tagged message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request.
type Request struct {
	// System is prepended as a system instruction when non-empty.
	System      string
	Turns       []Turn
	Temperature float64
	// MaxTokens of 0 leaves the output length unconstrained.
	MaxTokens int
	// JSON asks the provider for a single JSON object as output.
	JSON bool
}

// Backend is a chat-completion service.
type Backend interface {
	// SendPrompt answers a single user prompt under SystemPrompt.
	SendPrompt(ctx context.Context, prompt string) (string, error)
	// SendPromptWithHistory forwards the whole ordered conversation.
	SendPromptWithHistory(ctx context.Context, turns []Turn) (string, error)
	// Complete performs one request with caller-chosen parameters.
	Complete(ctx context.Context, req Request) (string, error)
	// Describe renders a failure from this backend for display.
	Describe(err error) string
	Name() string
}

func promptRequest(prompt string) Request {
	return Request{
		System:      SystemPrompt,
		Turns:       []Turn{{Role: RoleUser, Content: prompt}},
		Temperature: DefaultTemperature,
	}
}

func historyRequest(turns []Turn) Request {
	return Request{
		Turns:       turns,
		Temperature: DefaultTemperature,
	}
}

// New builds the backend named by provider from the chat configuration.
func New(provider string, cfg *config.ChatConfig) (Backend, error) {
	client := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}

	switch provider {
	case config.ProviderLocal:
		return NewLocal(cfg.Local, client), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAI, client), nil
	case config.ProviderGemini:
		return NewGemini(cfg.Gemini, client), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", provider)
	}
}
