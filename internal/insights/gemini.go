package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"arvaiapulse/internal/config"
)

// ErrEmptyResponse is returned when the model answers without text.
var ErrEmptyResponse = errors.New("no content returned from model")

// GeminiClient is one Gemini API key bound to the configured model.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient creates a client for apiKey with the sampling settings of cfg.
func NewGeminiClient(ctx context.Context, apiKey string, cfg config.InsightsConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)

	return &GeminiClient{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// GeminiSummarizer is a ModelSummarizer backed by one Gemini client per key.
type GeminiSummarizer struct {
	*ModelSummarizer
	clients []*GeminiClient
}

// NewGeminiSummarizer builds clients for every configured key. Keys that fail
// to initialise are logged and skipped; having none left is an error.
func NewGeminiSummarizer(ctx context.Context, cfg config.InsightsConfig, logger *slog.Logger) (*GeminiSummarizer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		clients    []*GeminiClient
		generators []Generator
	)
	for i, key := range cfg.APIKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		c, err := NewGeminiClient(ctx, key, cfg)
		if err != nil {
			logger.WarnContext(ctx, "skipping gemini key", slog.Int("key_index", i), slog.String("error", err.Error()))
			continue
		}
		clients = append(clients, c)
		generators = append(generators, c)
	}
	if len(clients) == 0 {
		return nil, ErrNoClients
	}

	logger.InfoContext(ctx, "gemini summarizer ready",
		slog.String("model", cfg.Model),
		slog.Int("clients", len(clients)),
	)

	return &GeminiSummarizer{
		ModelSummarizer: NewSummarizer(NewClientSelector(generators, logger), cfg.MaxRecords, logger),
		clients:         clients,
	}, nil
}

// Close closes every client.
func (s *GeminiSummarizer) Close() error {
	var errs []error
	for _, c := range s.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New returns the summarizer configured by cfg: Gemini when enabled with at
// least one usable key, DisabledSummarizer otherwise.
func New(ctx context.Context, cfg config.InsightsConfig, logger *slog.Logger) Summarizer {
	if !cfg.Enabled || len(cfg.APIKeys) == 0 {
		return DisabledSummarizer{}
	}
	s, err := NewGeminiSummarizer(ctx, cfg, logger)
	if err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "insights disabled", slog.String("error", err.Error()))
		}
		return DisabledSummarizer{}
	}
	return s
}
