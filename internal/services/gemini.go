package services

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"google.golang.org/genai"

	"recruitai/interview-orchestrator/internal/models"
)

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, models.UsageData, error)
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, models.UsageData, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

func NewGeminiService(apiKey string) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  "gemini-2.5-flash",
		embedModel: "text-embedding-004",
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements GeminiService. The returned usage reflects the
// model's own token accounting for this single call.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, models.UsageData, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", models.UsageData{}, fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", models.UsageData{}, fmt.Errorf("no response generated (nil response)")
	}

	var usage models.UsageData
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	text := resp.Text()
	if text == "" {
		return "", usage, fmt.Errorf("no text content in response")
	}

	return text, usage, nil
}

// GenerateTextWithRetry implements GeminiService.
func (g *geminiService) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, models.UsageData, error) {
	var (
		text  string
		usage models.UsageData
	)

	operation := func() error {
		var err error
		text, usage, err = g.GenerateText(ctx, prompt, temperature)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries)),
		ctx,
	)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", models.UsageData{}, fmt.Errorf("failed after %d attempts: %w", maxRetries+1, err)
	}

	return text, usage, nil
}
