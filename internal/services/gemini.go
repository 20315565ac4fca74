package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/logger"
)

// GeminiService talks to the Gemini API for both completions and embeddings.
type GeminiService struct {
	client      *genai.Client
	modelName   string
	embedModel  string
	temperature float32
	log         *zap.Logger
}

var (
	_ TextGenerator = (*GeminiService)(nil)
	_ Embedder      = (*GeminiService)(nil)
)

func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, log *zap.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		client:      client,
		modelName:   cfg.Model,
		embedModel:  cfg.EmbedModel,
		temperature: 0.7,
		log:         logger.WithCommonFields(log, "gemini", cfg.Model),
	}, nil
}

func (g *GeminiService) Name() string { return "gemini" }

// Embed implements Embedder.
func (g *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
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

// Complete implements TextGenerator.
func (g *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		g.log.Warn("❌ Gemini API error", zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text != "" {
		g.log.Debug("📊 Gemini response received", logger.Preview(text))
		return text, nil
	}

	// Some replies carry their content only in candidate parts.
	var textParts []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				textParts = append(textParts, part.Text)
			}
		}
	}

	if len(textParts) > 0 {
		g.log.Debug("⚠️ Using candidate parts of Gemini response")
		return strings.Join(textParts, "\n"), nil
	}

	return "", fmt.Errorf("no text content in response")
}
