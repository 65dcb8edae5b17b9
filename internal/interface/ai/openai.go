package ai

import (
	"context"
	"fmt"

	"screenwatch-service/pkg/logger"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a data-quality analyst for a cinema listings aggregator. " +
	"You diagnose why a scraper's screening count deviated from its history. " +
	"Respond with strict JSON only: " +
	`{"analysis": "<one or two sentences>", "confidence": <0.0-1.0>, "suggestedAction": "<optional short action>"}`

// OpenAIClassifier runs the diagnostic prompt against one OpenAI chat
// model
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	logger logger.Logger
}

// NewOpenAIClassifier creates a classifier bound to one model
func NewOpenAIClassifier(apiKey, model string, logger logger.Logger) *OpenAIClassifier {
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Classify sends the prompt and parses the model's verdict
func (c *OpenAIClassifier) Classify(ctx context.Context, prompt string) (Verdict, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Verdict{}, fmt.Errorf("model call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Verdict{}, fmt.Errorf("model %s returned no choices", c.model)
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("Model responded",
		"model", c.model,
		"finishReason", resp.Choices[0].FinishReason)

	return parseVerdict(content), nil
}
