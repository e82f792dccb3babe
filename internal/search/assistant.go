package search

import (
	"context"
	"errors"
	"log"
	"strings"

	"stuud-backend/internal/llm"
)

const (
	answerMaxTokens = 500

	NoAnswerReply    = "Sorry, I could not generate a response."
	AnswerErrorReply = "Sorry, there was an error processing your request. Please try again later."
)

// Assistant answers free-form questions about the campus data.
type Assistant struct {
	backend llm.Backend
}

func NewAssistant(backend llm.Backend) *Assistant {
	return &Assistant{backend: backend}
}

// Answer sends query with data as context. Failures are reported as a polite reply, never an error.
func (a *Assistant) Answer(ctx context.Context, query string, data Context) string {
	section, err := dataSection(data)
	if err != nil {
		log.Printf("Error building assistant prompt: %v", err)
		return AnswerErrorReply
	}
	system := "You are a helpful college services assistant. You have access to the following data:\n\n" +
		section +
		"\nAnswer questions based on this data. If you don't know the answer, say so politely."

	reply, err := a.backend.Complete(ctx, llm.Request{
		System:      system,
		Turns:       []llm.Turn{{Role: llm.RoleUser, Content: strings.TrimSpace(query)}},
		Temperature: llm.DefaultTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		var malformed *llm.MalformedResponseError
		if errors.As(err, &malformed) {
			return NoAnswerReply
		}
		log.Printf("Error generating assistant response: %v", err)
		return AnswerErrorReply
	}
	return reply
}
