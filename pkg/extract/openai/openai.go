package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"chavito/pkg/config"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client runs extraction calls against the OpenAI chat completions API with
// a JSON response format, matching the contract the decoder expects.
type Client struct {
	client         osdk.Client
	model          string
	temperature    float64
	maxTokens      int
	requestTimeout time.Duration
}

func New(cfg *config.Config) (*Client, error) {
	extractionCfg := cfg.Extraction
	providerCfg := extractionCfg.OpenAI

	apiKey := resolveAPIKey(providerCfg)
	if apiKey == "" {
		return nil, errors.New("extraction.openai.api_key_env is required or OPENAI_API_KEY must be set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(providerCfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if organization := strings.TrimSpace(providerCfg.Organization); organization != "" {
		opts = append(opts, option.WithOrganization(organization))
	}
	if project := strings.TrimSpace(providerCfg.Project); project != "" {
		opts = append(opts, option.WithProject(project))
	}

	requestTimeout := time.Duration(providerCfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	return &Client{
		client:         osdk.NewClient(opts...),
		model:          extractionCfg.ModelOrDefault(),
		temperature:    extractionCfg.TemperatureOrDefault(),
		maxTokens:      extractionCfg.MaxTokens,
		requestTimeout: requestTimeout,
	}, nil
}

func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := clientLogger().With("operation", "health")
	startedAt := time.Now()
	log.Debug("extraction request started")

	if _, err := c.client.Models.List(ctx); err != nil {
		log.Debug("extraction request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Debug("extraction request completed", "duration_ms", time.Since(startedAt).Milliseconds())

	return nil
}

// Complete sends one system+user turn and returns the model's raw JSON text.
func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	log := clientLogger().With("operation", "complete")
	startedAt := time.Now()

	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("user prompt is required")
	}
	log.Debug("extraction request started", "model", c.model, "prompt_length", len(user))

	params := osdk.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []osdk.ChatCompletionMessageParamUnion{
			osdk.SystemMessage(system),
			osdk.UserMessage(user),
		},
		Temperature: osdk.Float(c.temperature),
		ResponseFormat: osdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = osdk.Int(int64(c.maxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Debug("extraction request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		log.Debug("extraction request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no choices")
		return "", errors.New("completion succeeded but returned no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		log.Debug("extraction request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", "no output text")
		return "", errors.New("completion succeeded but returned no text")
	}
	log.Debug("extraction request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "response_length", len(text))

	return text, nil
}

func clientLogger() *slog.Logger {
	return slog.Default().With("component", "extract.openai")
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}

func resolveAPIKey(cfg config.OpenAIConfig) string {
	if apiKeyEnv := strings.TrimSpace(cfg.APIKeyEnv); apiKeyEnv != "" {
		if apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv)); apiKey != "" {
			return apiKey
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}
