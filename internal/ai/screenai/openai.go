package screenai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"

	"github.com/hirelens/hirelens/screening"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIAnalyzer runs resume analysis on OpenAI chat models. Selected with
// LLM_PROVIDER=openai.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer creates an analyzer backed by OpenAI. An empty model
// selects gpt-4o-mini.
func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIAnalyzer{
		client: &client,
		model:  model,
	}
}

// Analyze extracts structured resume data and scores it against the job
// description.
func (o *OpenAIAnalyzer) Analyze(ctx context.Context, resumeText, jobDescription string) (*screening.Analysis, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(BuildAnalysisPrompt(resumeText, jobDescription)),
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    o.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(4000),
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	return ParseAnalysis(completion.Choices[0].Message.Content)
}
