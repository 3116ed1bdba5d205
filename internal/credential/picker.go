package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ErrEmptyKey is returned when an empty key is selected
var ErrEmptyKey = errors.New("api key must not be empty")

// Picker lets the user choose the credential used for classification
type Picker interface {
	// HasCredential reports whether a credential has been selected
	HasCredential(ctx context.Context) (bool, error)
	// PromptSelect asks the user to select a credential
	PromptSelect(ctx context.Context) error
}

// KeyRing holds the API key chosen through the web UI. Prompting only
// raises a flag the UI polls; the key arrives later through Select.
type KeyRing struct {
	mu       sync.RWMutex
	key      string
	prompted bool
}

// NewKeyRing creates a KeyRing, optionally seeded with a configured key
func NewKeyRing(initial string) *KeyRing {
	return &KeyRing{key: strings.TrimSpace(initial)}
}

// APIKey returns the selected key, or "" if none
func (k *KeyRing) APIKey() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

// Select stores a new key and clears any pending prompt
func (k *KeyRing) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = key
	k.prompted = false
	slog.Info("API key selected")
	return nil
}

// HasCredential reports whether a key is present
func (k *KeyRing) HasCredential(ctx context.Context) (bool, error) {
	return k.APIKey() != "", nil
}

// PromptSelect flags that the UI should ask for a key
func (k *KeyRing) PromptSelect(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.prompted = true
	slog.Info("API key selection requested")
	return nil
}

// Prompted reports whether a key selection is pending
func (k *KeyRing) Prompted() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.prompted
}
