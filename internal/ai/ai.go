// Package ai generates natural-language text about a user's finances with
// Gemini. Responses are constrained to a small JSON object and cached by
// prompt.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
)

// FallbackAnswer is returned by AnswerQuery when the model produces no usable
// text.
const FallbackAnswer = "I apologize, I couldn't generate an answer based on the provided data. " +
	"Please try rephrasing your question or ensure your transactions are up to date."

var (
	ErrUnavailable   = errors.New("ai text generation is not configured")
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNoData        = errors.New("no transaction data available")
	ErrEmptyQuestion = errors.New("question must not be empty")
	// ErrGeneration wraps model transport and decoding failures.
	ErrGeneration    = errors.New("ai generation failed")
)

// Generator produces raw model output for a prompt. The schema describes the
// JSON object the model must return.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Config holds the Gemini settings.
type Config struct {
	APIKey    string
	Model     string
	CacheSize int
	CacheTTL  time.Duration
}

// Client runs the fixed prompt templates against a Generator.
type Client struct {
	gen   Generator
	cache *cache.LRUCache[string]
}

// New connects to the Gemini API.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrUnavailable
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewWithGenerator(&gemini{client: gc, model: cfg.Model}, cfg.CacheSize, cfg.CacheTTL), nil
}

// NewWithGenerator builds a Client around any Generator.
func NewWithGenerator(gen Generator, cacheSize int, cacheTTL time.Duration) *Client {
	return &Client{
		gen:   gen,
		cache: cache.NewLRUCache[string](cacheSize, cacheTTL),
	}
}

// Cache exposes the response cache so it can be registered for cleanup.
func (c *Client) Cache() *cache.LRUCache[string] { return c.cache }

type gemini struct {
	client *genai.Client
	model  string
}

func (g *gemini) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// stringField builds a schema for an object with one required string field.
func stringField(name, description string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			name: {Type: genai.TypeString, Description: description},
		},
		Required: []string{name},
	}
}

// run generates, decodes and caches the single string field of the response.
func (c *Client) run(ctx context.Context, flow, prompt, field, description string) (string, error) {
	key := cache.Key(flow, prompt)
	if v, ok := c.cache.Get(key); ok {
		slog.DebugContext(ctx, "AI cache hit", applog.FieldComponent, applog.ComponentAI, "flow", flow)
		return v, nil
	}

	start := time.Now()
	raw, err := c.gen.Generate(ctx, prompt, stringField(field, description))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", flow, ErrGeneration, err)
	}
	text, err := decodeField(raw, field)
	if err != nil {
		return "", fmt.Errorf("%s: %w", flow, err)
	}

	slog.InfoContext(ctx, "AI response generated",
		applog.FieldComponent, applog.ComponentAI,
		"flow", flow,
		"duration_ms", time.Since(start).Milliseconds())
	c.cache.Set(key, text)
	return text, nil
}

func decodeField(raw, field string) (string, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return "", ErrEmptyResponse
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrGeneration, err)
	}
	s, _ := out[field].(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyResponse
	}
	return s, nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return ""
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
