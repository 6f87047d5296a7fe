// Package llm abstracts the upstream model providers behind a common
// completion interface and a name-based registry.
package llm

import (
	"context"
	"fmt"
	"sort"
)

// Message represents a chat message sent to or received from the LLM.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Options configures a single completion request. Zero values fall back to
// the provider's configured defaults.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Response is the result of a completion.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	PromptTokens int64
	OutputTokens int64
}

// Provider abstracts an LLM backend (OpenAI, Anthropic, Ollama, vLLM, etc.).
type Provider interface {
	// Complete sends messages and returns a full response.
	Complete(ctx context.Context, messages []Message, opts Options) (*Response, error)

	// Name returns the provider name (e.g. "openai").
	Name() string

	// Available returns true if the provider is configured and ready.
	Available() bool
}

// Config holds per-provider configuration.
type Config struct {
	APIKey      string
	Model       string // default model when the request does not name one
	Endpoint    string // base URL override (for Ollama, vLLM, Azure)
	MaxTokens   int64
	Temperature float64
}

// Registry maps service names to providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers, keyed by Name().
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get resolves a service name to a configured provider. Unknown names and
// providers missing credentials both fail.
func (r *Registry) Get(service string) (Provider, error) {
	p, ok := r.providers[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}
	if !p.Available() {
		return nil, fmt.Errorf("service %q is not configured", service)
	}
	return p, nil
}

// Services returns the names of all available providers, sorted.
func (r *Registry) Services() []string {
	names := make([]string, 0, len(r.providers))
	for name, p := range r.providers {
		if p.Available() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
