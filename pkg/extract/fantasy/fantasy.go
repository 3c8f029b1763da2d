package fantasy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	core "charm.land/fantasy"
	provideropenai "charm.land/fantasy/providers/openai"

	"chavito/pkg/config"
)

type languageModelProvider interface {
	LanguageModel(ctx context.Context, modelID string) (core.LanguageModel, error)
}

// Client runs extraction calls through the fantasy agent abstraction. Each
// Complete call is a fresh single-turn generation; the extraction contract
// carries no conversation state.
type Client struct {
	provider        languageModelProvider
	requestTimeout  time.Duration
	modelID         string
	temperature     float64
	maxOutputTokens *int64
	generate        func(context.Context, core.LanguageModel, core.AgentCall) (*core.AgentResult, error)
}

func New(cfg *config.Config) (*Client, error) {
	apiKey := resolveAPIKey(cfg.Extraction.OpenAI)
	if apiKey == "" {
		return nil, errors.New("extraction.openai.api_key_env is required or OPENAI_API_KEY must be set")
	}

	providerOptions := []provideropenai.Option{provideropenai.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.Extraction.OpenAI.BaseURL); baseURL != "" {
		providerOptions = append(providerOptions, provideropenai.WithBaseURL(baseURL))
	}
	if organization := strings.TrimSpace(cfg.Extraction.OpenAI.Organization); organization != "" {
		providerOptions = append(providerOptions, provideropenai.WithOrganization(organization))
	}
	if project := strings.TrimSpace(cfg.Extraction.OpenAI.Project); project != "" {
		providerOptions = append(providerOptions, provideropenai.WithProject(project))
	}

	fantasyProvider, err := provideropenai.New(providerOptions...)
	if err != nil {
		return nil, fmt.Errorf("initialize fantasy openai provider: %w", err)
	}

	client := &Client{
		provider:       fantasyProvider,
		requestTimeout: time.Duration(cfg.Extraction.OpenAI.RequestTimeoutSeconds) * time.Second,
		modelID:        cfg.Extraction.ModelOrDefault(),
		temperature:    cfg.Extraction.TemperatureOrDefault(),
		generate:       generateWithFantasyAgent,
	}

	if cfg.Extraction.MaxTokens > 0 {
		maxTokens := int64(cfg.Extraction.MaxTokens)
		client.maxOutputTokens = &maxTokens
	}

	return client, nil
}

func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if _, err := c.provider.LanguageModel(ctx, c.modelID); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}

// Complete sends one system+user turn and returns the model's raw JSON text.
func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("user prompt is required")
	}

	languageModel, err := c.provider.LanguageModel(ctx, c.modelID)
	if err != nil {
		return "", fmt.Errorf("resolve language model: %w", err)
	}

	call := core.AgentCall{
		Prompt: user,
	}
	if system = strings.TrimSpace(system); system != "" {
		call.Messages = []core.Message{
			{
				Role: core.MessageRoleSystem,
				Content: []core.MessagePart{
					core.TextPart{Text: system},
				},
			},
		}
	}
	if c.maxOutputTokens != nil {
		call.MaxOutputTokens = c.maxOutputTokens
	}
	temperature := c.temperature
	call.Temperature = &temperature

	generate := c.generate
	if generate == nil {
		generate = generateWithFantasyAgent
	}

	result, err := generate(ctx, languageModel, call)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	response := extractText(result.Response.Content)
	if response == "" {
		return "", errors.New("completion succeeded but returned no text")
	}

	return response, nil
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

func extractText(content core.ResponseContent) string {
	lines := make([]string, 0)
	for _, part := range content {
		if part.GetType() != core.ContentTypeText {
			continue
		}

		textPart, ok := core.AsContentType[core.TextContent](part)
		if !ok {
			continue
		}

		line := strings.TrimSpace(textPart.Text)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func generateWithFantasyAgent(ctx context.Context, model core.LanguageModel, call core.AgentCall) (*core.AgentResult, error) {
	runtime := core.NewAgent(model)
	return runtime.Generate(ctx, call)
}
