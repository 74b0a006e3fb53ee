package screenai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/hirelens/hirelens/screening"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAnalyzer runs resume analysis on Google's Gemini models.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalyzer creates the default analyzer. An empty model selects
// gemini-2.0-flash.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiAnalyzer{
		client: client,
		model:  model,
	}, nil
}

// Analyze extracts structured resume data and scores it against the job
// description.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, resumeText, jobDescription string) (*screening.Analysis, error) {
	prompt := BuildAnalysisPrompt(resumeText, jobDescription)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.New("empty response from gemini")
	}

	return ParseAnalysis(text)
}
