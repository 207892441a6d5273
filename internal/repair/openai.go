package repair

import (
	"context"
	"fmt"

	"github.com/partforge/partforge/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when the config names no oracle model.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIOracle diagnoses failed designs through any OpenAI-compatible
// chat completion endpoint.
type OpenAIOracle struct {
	client *openai.Client
	model  string
}

// NewOpenAIOracle constructs an OpenAI-compatible oracle. baseURL may be
// empty for the default API endpoint.
func NewOpenAIOracle(apiKey, baseURL, modelName string) (*OpenAIOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	return &OpenAIOracle{client: openai.NewClientWithConfig(cfg), model: modelName}, nil
}

// Diagnose asks the model for a repair plan and validates its JSON.
func (o *OpenAIOracle) Diagnose(ctx context.Context, summary Summary, report model.ValidationReport) (*model.RepairPlan, error) {
	system, input, err := buildPrompt(summary, report)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return DecodePlan(resp.Choices[0].Message.Content)
}
