// Package llm provides the Ollama backend used by model-driven negotiation
// strategies, the prompt templates, and robust parsing of model output into
// negotiation actions.
package llm

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config holds backend connection and sampling settings.
type Config struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  float64 `yaml:"timeout_sec"`
	MaxRetries  int     `yaml:"max_retries"`
	Debug       bool    `yaml:"debug"`
}

// DefaultConfig returns the stock local-Ollama settings.
func DefaultConfig() Config {
	return Config{
		Model:       "qwen2.5:3b",
		BaseURL:     "http://localhost:11434",
		Temperature: 0.2,
		MaxTokens:   256,
		TimeoutSec:  30,
		MaxRetries:  3,
	}
}

// Backend is an HTTP client for Ollama's /api/generate endpoint. Transient
// failures are retried with exponential backoff inside Generate; the
// strategy layer maps remaining errors to fallback actions, so a backend
// error never reaches a negotiation session.
type Backend struct {
	cfg    Config
	client *resty.Client

	mu        sync.Mutex
	callCount int
}

// NewBackend creates a backend from config.
func NewBackend(cfg Config) *Backend {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec * float64(time.Second))).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(16 * time.Second)
	return &Backend{cfg: cfg, client: client}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a prompt and returns the generated text.
func (b *Backend) Generate(prompt string) (string, error) {
	b.mu.Lock()
	call := b.callCount
	b.callCount++
	b.mu.Unlock()

	if b.cfg.Debug {
		slog.Debug("ollama request", "call", call, "model", b.cfg.Model, "prompt_len", len(prompt))
	}

	var out generateResponse
	resp, err := b.client.R().
		SetBody(generateRequest{
			Model:  b.cfg.Model,
			Prompt: prompt,
			Stream: false,
			Options: generateOptions{
				Temperature: b.cfg.Temperature,
				NumPredict:  b.cfg.MaxTokens,
			},
		}).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	if b.cfg.Debug {
		text := out.Response
		if len(text) > 300 {
			text = text[:300]
		}
		slog.Debug("ollama response", "call", call, "head", text)
	}
	return out.Response, nil
}

// CallCount returns the number of Generate calls made so far.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callCount
}
