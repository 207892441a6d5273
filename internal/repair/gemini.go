package repair

import (
	"context"
	"fmt"

	"github.com/partforge/partforge/internal/model"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the config names no oracle model.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiOracle diagnoses failed designs with a Gemini model.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// NewGeminiOracle constructs a Gemini-backed oracle.
func NewGeminiOracle(ctx context.Context, apiKey, modelName string) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiOracle{client: client, model: modelName}, nil
}

// Diagnose asks the model for a repair plan and validates its JSON.
func (o *GeminiOracle) Diagnose(ctx context.Context, summary Summary, report model.ValidationReport) (*model.RepairPlan, error) {
	system, input, err := buildPrompt(summary, report)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(input), &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned no text")
	}
	return DecodePlan(text)
}
