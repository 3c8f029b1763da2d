package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envBackendURL        = "CHAVITO_BACKEND_URL"
	envWhatsAppSendURL   = "WHATSAPP_SEND_URL"
	envWhatsAppToken     = "WHATSAPP_TOKEN"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
)

const (
	defaultExtractionModel       = "gpt-4.1-mini"
	defaultExtractionTemperature = 0.3
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Extraction ExtractionConfig `json:"extraction"`
	Backend    BackendConfig    `json:"backend"`
	Channels   ChannelsConfig   `json:"channels"`
	Gateway    GatewayConfig    `json:"gateway"`
	Logging    LoggingConfig    `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// ExtractionConfig selects and tunes the intent/order extraction provider.
type ExtractionConfig struct {
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	OpenAI      OpenAIConfig `json:"openai"`
}

// OpenAIConfig configures the OpenAI-backed extraction clients.
type OpenAIConfig struct {
	BaseURL               string `json:"base_url"`
	Organization          string `json:"organization"`
	Project               string `json:"project"`
	APIKeyEnv             string `json:"api_key_env"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// BackendConfig configures the Chavito order backend client.
type BackendConfig struct {
	BaseURL               string `json:"base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Telegram TelegramConfig `json:"telegram"`
}

// WhatsAppConfig configures the webhook-based WhatsApp bridge channel.
type WhatsAppConfig struct {
	Enabled     bool     `json:"enabled"`
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	SendURL     string   `json:"send_url"`
	PresenceURL string   `json:"presence_url"`
	Token       string   `json:"token"`
	AllowFrom   []string `json:"allow_from"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// GatewayConfig configures HTTP status endpoint bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ModelOrDefault returns the configured extraction model or the default.
func (c ExtractionConfig) ModelOrDefault() string {
	if model := strings.TrimSpace(c.Model); model != "" {
		return model
	}

	return defaultExtractionModel
}

// TemperatureOrDefault returns the configured sampling temperature or the default.
func (c ExtractionConfig) TemperatureOrDefault() float64 {
	if c.Temperature > 0 {
		return c.Temperature
	}

	return defaultExtractionTemperature
}

// LoadConfig resolves config.json, unmarshals it, and applies environment
// overrides. A .env file in the working directory is loaded first, best-effort,
// so local deployments can keep secrets out of config.json.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if url := strings.TrimSpace(os.Getenv(envBackendURL)); url != "" {
		cfg.Backend.BaseURL = url
	}

	if url := strings.TrimSpace(os.Getenv(envWhatsAppSendURL)); url != "" {
		cfg.Channels.WhatsApp.SendURL = url
	}

	if token := strings.TrimSpace(os.Getenv(envWhatsAppToken)); token != "" {
		cfg.Channels.WhatsApp.Token = token
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is CHAVITO_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("CHAVITO_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("CHAVITO_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
