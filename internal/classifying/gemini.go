package classifying

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var errNoAPIKey = errors.New("no API key selected")

// Gemini implements the Classifier interface using Google Gemini
type Gemini struct {
	keys       KeySource
	modelName  string
	opts       Options
	clientOpts []option.ClientOption
}

// NewGemini creates a new Gemini classifier. The key is read from keys on
// every call so that a newly selected key takes effect immediately.
func NewGemini(keys KeySource, modelName string, opts Options, clientOpts ...option.ClientOption) (*Gemini, error) {
	if keys == nil {
		return nil, fmt.Errorf("gemini key source is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &Gemini{
		keys:       keys,
		modelName:  modelName,
		opts:       opts.withDefaults(),
		clientOpts: clientOpts,
	}, nil
}

// Name returns the backend name
func (g *Gemini) Name() string {
	return "gemini"
}

// Classify analyzes a product image and/or description
func (g *Gemini) Classify(ctx context.Context, req Request) (*AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	apiKey := g.keys.APIKey()
	if apiKey == "" {
		return nil, &AuthenticationError{Err: errNoAPIKey}
	}

	ctx, cancel := g.opts.callContext(ctx)
	defer cancel()

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, g.clientOpts...)...)
	if err != nil {
		return nil, MapError(fmt.Errorf("creating gemini client: %w", err))
	}
	defer client.Close()

	model := client.GenerativeModel(g.modelName)
	g.configure(model)

	resp, err := model.GenerateContent(ctx, buildGeminiParts(req)...)
	if err != nil {
		slog.Error("Gemini analysis error", "model", g.modelName, "error", err)
		return nil, MapError(fmt.Errorf("generating content: %w", err))
	}

	result, err := parseAnalysisJSON(geminiText(resp), g.opts.Strict)
	if err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("parsing analysis: %w", err)}
	}
	return result, nil
}

// Close is a no-op; clients are created per call
func (g *Gemini) Close() error {
	return nil
}

func (g *Gemini) configure(model *genai.GenerativeModel) {
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction(g.opts.ShopName))},
	}
	model.SetTemperature(g.opts.Temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiSchema()
}

// buildGeminiParts returns the image part (if any) followed by the text
// part (if any)
func buildGeminiParts(req Request) []genai.Part {
	parts := make([]genai.Part, 0, 2)
	if req.hasImage() {
		parts = append(parts, genai.Blob{
			MIMEType: req.Image.MimeType,
			Data:     req.Image.Data,
		})
	}
	if text := req.prompt(); text != "" {
		parts = append(parts, genai.Text(text))
	}
	return parts
}

// geminiText concatenates the text parts of the first candidate
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

func geminiSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"productName": {
				Type:        genai.TypeString,
				Description: "Likely name of the product.",
			},
			"category": {
				Type:        genai.TypeString,
				Description: "The category name exactly as defined in the list.",
				Format:      "enum",
				Enum:        labels(),
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence level from 0 to 1.",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "Reasoning for this classification.",
			},
			"suggestedTags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Relevant search or SEO tags.",
			},
		},
		Required: schemaFields,
	}
}
