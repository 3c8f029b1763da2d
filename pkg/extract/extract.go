package extract

import (
	"context"
	"fmt"
	"log/slog"

	"chavito/pkg/config"
	extractfantasy "chavito/pkg/extract/fantasy"
	extractopenai "chavito/pkg/extract/openai"
)

// Client performs one remote classification call and returns the raw JSON
// payload text. Parsing and fallback policy live in the Engine, not here.
type Client interface {
	Health(ctx context.Context) error
	Complete(ctx context.Context, system string, user string) (string, error)
}

// NewClient resolves the configured extraction provider.
func NewClient(cfg *config.Config) (Client, error) {
	providerID := cfg.Extraction.Provider
	if providerID == "" {
		providerID = "openai"
	}

	slog.Default().With("component", "extract.factory").Debug("Resolving extraction client", "provider", providerID)

	switch providerID {
	case "openai":
		return extractopenai.New(cfg)
	case "fantasy":
		return extractfantasy.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported extraction provider: %s", providerID)
	}
}
