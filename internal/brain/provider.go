// Package brain talks to the LLM that writes the recommendation narrative.
package brain

import (
	"context"
)

// Provider is the interface for LLM providers.
type Provider interface {
	// Name returns the provider name (e.g., "groq", "ollama")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to a provider.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64 // 0 leaves the provider default
}

// Response is the provider's answer.
type Response struct {
	Content     string
	Model       string
	RawResponse string // raw API body, for debugging
}

// ProviderManager picks among providers, preferring one by name.
type ProviderManager struct {
	providers []Provider
	preferred string
}

// NewProviderManager creates an empty manager.
func NewProviderManager() *ProviderManager {
	return &ProviderManager{
		providers: make([]Provider, 0),
	}
}

// AddProvider adds a provider to the manager.
func (pm *ProviderManager) AddProvider(p Provider) {
	pm.providers = append(pm.providers, p)
}

// SetPreferred sets the preferred provider by name.
func (pm *ProviderManager) SetPreferred(name string) {
	pm.preferred = name
}

// GetAvailable returns the preferred provider if it is available, otherwise
// the first available one, otherwise nil.
func (pm *ProviderManager) GetAvailable() Provider {
	if pm == nil {
		return nil
	}
	if pm.preferred != "" {
		for _, p := range pm.providers {
			if p.Name() == pm.preferred && p.Available() {
				return p
			}
		}
	}

	for _, p := range pm.providers {
		if p.Available() {
			return p
		}
	}
	return nil
}

// ListAvailable returns names of all available providers.
func (pm *ProviderManager) ListAvailable() []string {
	var names []string
	for _, p := range pm.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}
