// Package llm provides language model access for the companion.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Provider represents a model provider
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// TaskComplexity represents the complexity level of a task
type TaskComplexity int

const (
	ComplexityLow  TaskComplexity = 1 // Extraction and classification, local model is fine
	ComplexityHigh TaskComplexity = 2 // Empathic companion responses, prefer Claude
)

// RouterConfig configures the hybrid router
type RouterConfig struct {
	Claude *Client
	Ollama *OllamaClient

	// PreferLocal routes low-complexity work to Ollama even when
	// Claude is configured.
	PreferLocal bool

	// EnableFallback retries the other provider when the primary fails.
	EnableFallback bool
}

// Router routes requests between the cloud and local providers.
// Field extraction runs every turn, so it goes local when possible;
// companion responses carry the relationship and go to the stronger model.
type Router struct {
	claude *Client
	ollama *OllamaClient

	preferLocal    bool
	enableFallback bool

	mu    sync.RWMutex
	stats RouterStats
}

// RouterStats tracks router usage
type RouterStats struct {
	ClaudeRequests   int64
	OllamaRequests   int64
	FallbackCount    int64
	AverageLatencyMs int64
}

// NewRouter creates a new hybrid router
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		claude:         cfg.Claude,
		ollama:         cfg.Ollama,
		preferLocal:    cfg.PreferLocal,
		enableFallback: cfg.EnableFallback,
	}
}

// RouteRequest represents a request to be routed
type RouteRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64

	// Routing hints
	PreferredProvider Provider       // If set, use this provider
	MinComplexity     TaskComplexity // Minimum complexity level
}

// RouteResponse contains the response and metadata
type RouteResponse struct {
	Content     string
	Provider    Provider
	LatencyMs   int64
	WasFallback bool
}

// Route sends a request to the appropriate provider
func (r *Router) Route(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	start := time.Now()

	complexity := r.assessComplexity(req.Prompt)
	if req.MinComplexity > complexity {
		complexity = req.MinComplexity
	}

	provider := r.selectProvider(req, complexity)

	response, usedProvider, err := r.executeRequest(ctx, req, provider)
	if err != nil {
		if r.enableFallback {
			response, usedProvider, err = r.executeFallback(ctx, req, provider)
			if err != nil {
				return nil, fmt.Errorf("all providers failed: %w", err)
			}
			r.mu.Lock()
			r.stats.FallbackCount++
			r.mu.Unlock()
		} else {
			return nil, err
		}
	}

	latency := time.Since(start).Milliseconds()
	r.updateStats(usedProvider, latency)

	return &RouteResponse{
		Content:     response,
		Provider:    usedProvider,
		LatencyMs:   latency,
		WasFallback: usedProvider != provider,
	}, nil
}

// assessComplexity analyzes prompt complexity. Long prompts and
// prompts asking for empathic or reflective output score high.
func (r *Router) assessComplexity(prompt string) TaskComplexity {
	score := 0.0

	wordCount := len(strings.Fields(prompt))
	if wordCount > 300 {
		score += 0.3
	} else if wordCount > 100 {
		score += 0.2
	} else if wordCount > 30 {
		score += 0.1
	}

	deepKeywords := []string{
		"empathic", "compassionate", "acknowledge", "reflect",
		"grief", "loss", "comfort", "gently", "wisdom",
	}
	for _, kw := range deepKeywords {
		if strings.Contains(strings.ToLower(prompt), kw) {
			score += 0.15
		}
	}

	if score > 0.3 {
		return ComplexityHigh
	}
	return ComplexityLow
}

// selectProvider chooses the best provider for the request
func (r *Router) selectProvider(req RouteRequest, complexity TaskComplexity) Provider {
	if req.PreferredProvider != "" {
		return req.PreferredProvider
	}

	if r.preferLocal && complexity == ComplexityLow {
		if r.ollama != nil && r.ollama.IsConfigured() {
			return ProviderOllama
		}
	}

	switch complexity {
	case ComplexityHigh:
		if r.claude != nil && r.claude.IsConfigured() {
			return ProviderClaude
		}
		if r.ollama != nil && r.ollama.IsConfigured() {
			return ProviderOllama
		}
	case ComplexityLow:
		if r.ollama != nil && r.ollama.IsConfigured() {
			return ProviderOllama
		}
		if r.claude != nil && r.claude.IsConfigured() {
			return ProviderClaude
		}
	}

	if r.claude != nil && r.claude.IsConfigured() {
		return ProviderClaude
	}
	return ProviderOllama
}

// executeRequest executes the request with the specified provider
func (r *Router) executeRequest(ctx context.Context, req RouteRequest, provider Provider) (string, Provider, error) {
	switch provider {
	case ProviderClaude:
		if r.claude == nil || !r.claude.IsConfigured() {
			return "", provider, fmt.Errorf("Claude not configured")
		}
		resp, err := r.claude.Chat(ctx, req.System, req.Prompt)
		return resp, provider, err

	case ProviderOllama:
		if r.ollama == nil || !r.ollama.IsConfigured() {
			return "", provider, fmt.Errorf("Ollama not configured")
		}
		resp, err := r.ollama.Chat(ctx, req.System, req.Prompt)
		return resp, provider, err

	default:
		return "", provider, fmt.Errorf("unknown provider: %s", provider)
	}
}

// executeFallback tries the other provider when the primary fails
func (r *Router) executeFallback(ctx context.Context, req RouteRequest, failedProvider Provider) (string, Provider, error) {
	providers := []Provider{ProviderClaude, ProviderOllama}

	for _, p := range providers {
		if p == failedProvider {
			continue
		}

		resp, usedProvider, err := r.executeRequest(ctx, req, p)
		if err == nil {
			return resp, usedProvider, nil
		}
	}

	return "", "", fmt.Errorf("all fallback providers failed")
}

// updateStats updates router statistics
func (r *Router) updateStats(provider Provider, latencyMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch provider {
	case ProviderClaude:
		r.stats.ClaudeRequests++
	case ProviderOllama:
		r.stats.OllamaRequests++
	}

	total := r.stats.ClaudeRequests + r.stats.OllamaRequests
	r.stats.AverageLatencyMs = (r.stats.AverageLatencyMs*(total-1) + latencyMs) / total
}

// GetStats returns router statistics
func (r *Router) GetStats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// HealthCheck checks the health of all configured providers
func (r *Router) HealthCheck(ctx context.Context) map[Provider]bool {
	health := make(map[Provider]bool)

	if r.claude != nil {
		health[ProviderClaude] = r.claude.IsConfigured()
	}
	if r.ollama != nil {
		health[ProviderOllama] = r.ollama.IsConfigured()
	}

	return health
}

// Classify is a convenience method for extraction and classification
func (r *Router) Classify(ctx context.Context, system, prompt string) (string, error) {
	resp, err := r.Route(ctx, RouteRequest{
		System:        system,
		Prompt:        prompt,
		MinComplexity: ComplexityLow,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Reason is a convenience method for companion responses
func (r *Router) Reason(ctx context.Context, system, prompt string) (string, error) {
	resp, err := r.Route(ctx, RouteRequest{
		System:        system,
		Prompt:        prompt,
		MinComplexity: ComplexityHigh,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
