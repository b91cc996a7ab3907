package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reddit-listener/config"
	"reddit-listener/domain"

	"google.golang.org/genai"
)

const summaryPromptTemplate = `Summarize the following Reddit thread in 2-3 concise sentences.
Focus on the main issue, question, or story being discussed.

Title: %s

Content: %s

Provide a clear, objective summary:`

// GeminiSummarizer generates thread summaries with the Gemini API.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiSummarizer creates the summarizer client. The API key is
// injected from config, resolved once at startup.
func NewGeminiSummarizer(ctx context.Context, cfg *config.GeminiConfig, logger *slog.Logger) (*GeminiSummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiSummarizer{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Summarize produces a short summary for one thread. Empty model output is
// an error so a garbled result is never stored.
func (s *GeminiSummarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	prompt := fmt.Sprintf(summaryPromptTemplate, title, body)

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", domain.ErrEmptySummary
	}

	var out strings.Builder

	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			out.WriteString(part.Text)
		}
	}

	summary := strings.TrimSpace(out.String())
	if summary == "" {
		return "", domain.ErrEmptySummary
	}

	s.logger.InfoContext(ctx, "summary generated", "model", s.model, "summary_length", len(summary))

	return summary, nil
}
