package classifying

import (
	"context"
	"strings"
	"time"
)

// AnalysisResult is the structured categorization returned by a classifier
type AnalysisResult struct {
	ProductName   string   `json:"productName"`
	Category      Category `json:"category"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	SuggestedTags []string `json:"suggestedTags"`
}

// Request carries the user input for one classification
type Request struct {
	// Image is the product photo, if any
	Image *EncodedImage
	// Description is free text typed by the user, if any
	Description string
}

// Validate checks that the request carries an image or a description
func (r Request) Validate() error {
	if (r.Image == nil || len(r.Image.Data) == 0) && strings.TrimSpace(r.Description) == "" {
		return ErrInputMissing
	}
	return nil
}

// hasImage reports whether the request carries image bytes
func (r Request) hasImage() bool {
	return r.Image != nil && len(r.Image.Data) > 0
}

// prompt returns the user text part, or "" when there is no description
func (r Request) prompt() string {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return ""
	}
	return "Analyze this product: " + desc
}

// Classifier defines the interface for product classification backends
type Classifier interface {
	// Classify sends the request to the model and returns its categorization
	Classify(ctx context.Context, req Request) (*AnalysisResult, error)
	// Name identifies the backend in logs
	Name() string
	// Close releases resources held by the backend
	Close() error
}

// Options holds the settings shared by every backend
type Options struct {
	// ShopName is quoted in the system instruction
	ShopName string
	// Strict rejects responses that do not match the output schema
	Strict bool
	// Temperature is the sampling temperature sent to the model
	Temperature float32
	// Timeout bounds a single call; zero leaves it to the transport
	Timeout time.Duration
}

// KeySource hands out the API key currently selected by the user
type KeySource interface {
	APIKey() string
}

// StaticKey is a KeySource that always returns the same key
type StaticKey string

func (k StaticKey) APIKey() string {
	return string(k)
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		ShopName:    "boutique tounis",
		Strict:      true,
		Temperature: 0.1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ShopName == "" {
		o.ShopName = d.ShopName
	}
	if o.Temperature == 0 {
		o.Temperature = d.Temperature
	}
	return o
}

// callContext applies the configured timeout, if any
func (o Options) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return context.WithCancel(ctx)
}
