// Package llm provides Generator implementations backed by chat
// completion APIs.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smallnest/minirag/log"
)

const (
	systemPrompt = "You are a helpful assistant that provides accurate information based on the given context."

	answerPromptFormat = `You are an assistant that answers questions based on the provided context.
If the answer cannot be determined from the context, say so clearly.

Context:
%s

Question: %s

Answer:`

	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

// ChatCompleter is the slice of the OpenAI client the generator uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator produces grounded answers through the OpenAI chat
// completion API. An API failure is folded into the answer string so the
// query pipeline still returns a readable result.
type OpenAIGenerator struct {
	client ChatCompleter
	model  string
	logger log.Logger
}

// NewOpenAIGenerator creates a generator using the given API key and
// model.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: log.GetDefaultLogger(),
	}
}

// NewOpenAIGeneratorWithClient wraps an existing client, useful for
// tests.
func NewOpenAIGeneratorWithClient(client ChatCompleter, model string, logger log.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &OpenAIGenerator{
		client: client,
		model:  model,
		logger: logger,
	}
}

// GenerateAnswer asks the model to answer the query from the supplied
// context. A completion failure returns a descriptive answer string and
// a nil error.
func (g *OpenAIGenerator) GenerateAnswer(ctx context.Context, query, context_ string) (string, error) {
	prompt := fmt.Sprintf(answerPromptFormat, context_, query)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		g.logger.Error("chat completion failed: %v", err)
		return fmt.Sprintf("The language model encountered an error while generating a response: %v", err), nil
	}
	if len(resp.Choices) == 0 {
		return "The language model returned no choices.", nil
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
