package liveness

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

// GeminiProvider asks a Gemini vision model for a liveness verdict.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string {
	return geminiModel
}

func (p *GeminiProvider) CheckLiveness(ctx context.Context, imageData []byte) (bool, error) {
	// Resize capture to max 800px to save costs
	resizedData, err := resizeImage(imageData, 800)
	if err != nil {
		return false, fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: livenessPrompt + "\n\nIs this capture a live person?"},
				{InlineData: &genai.Blob{Data: resizedData, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, config)
	if err != nil {
		return false, fmt.Errorf("gemini API error: %w", err)
	}

	content := result.Text()
	if content == "" {
		return false, errors.New("no response from Gemini")
	}

	v, err := parseVerdict(content)
	if err != nil {
		return false, err
	}

	return v.Live, nil
}
