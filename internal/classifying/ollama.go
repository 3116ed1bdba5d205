package classifying

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama implements the Classifier interface using a local Ollama server.
// Recommended vision models, in order:
//   - llava:1.6
//   - qwen2-vl:7b
//   - llava-phi3 (smaller, faster, but less accurate)
type Ollama struct {
	baseURL string
	model   string
	opts    Options
	client  *http.Client
}

// NewOllama creates a new Ollama classifier
func NewOllama(baseURL string, modelName string, opts Options) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   modelName,
		opts:    opts.withDefaults(),
		client: &http.Client{
			Timeout: 120 * time.Second, // vision models can be slow
		},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Name returns the backend name
func (o *Ollama) Name() string {
	return "ollama"
}

// Classify analyzes a product image and/or description
func (o *Ollama) Classify(ctx context.Context, req Request) (*AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := o.opts.callContext(ctx)
	defer cancel()

	jsonData, err := json.Marshal(o.buildRequest(req))
	if err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("calling ollama API: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, MapError(&httpStatusError{Backend: "ollama", Code: resp.StatusCode, Body: string(body)})
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	result, err := parseAnalysisJSON(chatResp.Message.Content, o.opts.Strict)
	if err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("parsing analysis: %w", err)}
	}
	return result, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}

func (o *Ollama) buildRequest(req Request) ollamaChatRequest {
	user := ollamaMessage{
		Role:    "user",
		Content: req.prompt(),
	}
	if req.hasImage() {
		user.Images = []string{base64.StdEncoding.EncodeToString(req.Image.Data)}
	}

	return ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemInstruction(o.opts.ShopName)},
			user,
		},
		Format:  jsonSchema(),
		Options: map[string]any{"temperature": o.opts.Temperature},
	}
}
