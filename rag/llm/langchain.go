package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/smallnest/minirag/log"
)

// LangChainGenerator produces grounded answers through any langchaingo
// model, so the pipeline can run against Ollama, Anthropic, or anything
// else the ecosystem wraps. The degraded-answer contract matches
// OpenAIGenerator.
type LangChainGenerator struct {
	model  llms.Model
	logger log.Logger
}

// NewLangChainGenerator creates a generator over the given model.
func NewLangChainGenerator(model llms.Model, logger log.Logger) *LangChainGenerator {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &LangChainGenerator{
		model:  model,
		logger: logger,
	}
}

// GenerateAnswer asks the model to answer the query from the supplied
// context. A generation failure returns a descriptive answer string and
// a nil error.
func (g *LangChainGenerator) GenerateAnswer(ctx context.Context, query, context_ string) (string, error) {
	prompt := fmt.Sprintf(answerPromptFormat, context_, query)

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	response, err := g.model.GenerateContent(ctx, messages,
		llms.WithTemperature(defaultTemperature),
		llms.WithMaxTokens(defaultMaxTokens))
	if err != nil {
		g.logger.Error("generation failed: %v", err)
		return fmt.Sprintf("The language model encountered an error while generating a response: %v", err), nil
	}
	if len(response.Choices) == 0 {
		return "The language model returned no choices.", nil
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
