package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shelflife/internal/config"

	"google.golang.org/genai"
)

const recognitionPrompt = `This photo shows a skincare product. Identify the brand and the product name printed on the packaging. Respond with JSON only: {"brand": "...", "name": "..."}. Use an empty string for anything you cannot read.`

// GeminiRecognizer asks a Gemini multimodal model to read the packaging.
type GeminiRecognizer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiRecognizer builds the production recognizer from the injected
// configuration.
func NewGeminiRecognizer(ctx context.Context, cfg config.RecognitionConfig) (*GeminiRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("recognition API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiRecognizer{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Recognize sends the image to the model and parses the structured reply.
// The call is bounded by the configured timeout; there is no unlimited wait
// on the inference service.
func (r *GeminiRecognizer) Recognize(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if err := ValidateImage(image, mimeType); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(recognitionPrompt),
		}, genai.RoleUser),
	}

	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"brand": {Type: genai.TypeString},
				"name":  {Type: genai.TypeString},
			},
			Required: []string{"brand", "name"},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("recognition request failed: %w", err)
	}

	return parseResult(resp.Text())
}

// parseResult decodes the model reply, tolerating a stray code fence.
func parseResult(text string) (Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var result Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return Result{}, fmt.Errorf("unexpected recognition response: %w", err)
	}

	result.Brand = strings.TrimSpace(result.Brand)
	result.Name = strings.TrimSpace(result.Name)
	return result, nil
}
