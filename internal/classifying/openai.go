package classifying

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// OpenAI implements the Classifier interface using an OpenAI compatible
// chat completion endpoint
type OpenAI struct {
	keys    KeySource
	model   string
	baseURL string
	opts    Options
}

// NewOpenAI creates a new OpenAI classifier. baseURL may be empty to use the
// public endpoint.
func NewOpenAI(keys KeySource, modelName, baseURL string, opts Options) (*OpenAI, error) {
	if keys == nil {
		return nil, fmt.Errorf("openai key source is required")
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	return &OpenAI{
		keys:    keys,
		model:   modelName,
		baseURL: baseURL,
		opts:    opts.withDefaults(),
	}, nil
}

// Name returns the backend name
func (o *OpenAI) Name() string {
	return "openai"
}

// Classify analyzes a product image and/or description
func (o *OpenAI) Classify(ctx context.Context, req Request) (*AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	apiKey := o.keys.APIKey()
	if apiKey == "" {
		return nil, &AuthenticationError{Err: errNoAPIKey}
	}

	ctx, cancel := o.opts.callContext(ctx)
	defer cancel()

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, o.buildRequest(req))
	if err != nil {
		slog.Error("OpenAI analysis error", "model", o.model, "error", err)
		return nil, MapError(openAIStatus(err))
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	result, err := parseAnalysisJSON(text, o.opts.Strict)
	if err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("parsing analysis: %w", err)}
	}
	return result, nil
}

// Close is a no-op; clients are created per call
func (o *OpenAI) Close() error {
	return nil
}

func (o *OpenAI) buildRequest(req Request) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, 2)
	if req.hasImage() {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    req.Image.DataURL(),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	if text := req.prompt(); text != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: text,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction(o.opts.ShopName)},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "analysis_result",
				Schema: jsonSchema(),
			},
		},
	}
}

// openAIStatus exposes the HTTP status of go-openai errors to MapError
func openAIStatus(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &httpStatusError{Backend: "openai", Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &httpStatusError{Backend: "openai", Code: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
