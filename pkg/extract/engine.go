package extract

import (
	"context"
	"log/slog"
)

// Fallback replies are authored here, never by the remote model.
const (
	malformedReply = "Te doy una mano, pero no entendí bien tu mensaje. ¿Me contás a qué penal querés mandar y qué productos?"

	unavailableReply = "Estoy con un problemita para pensar ahora, pero igual te puedo ayudar. Decime despacio a qué penal querés mandar y qué productos."
)

// Engine turns free-form user text into a validated Result. Extract always
// returns a usable result; remote failures degrade to hardcoded fallbacks.
type Engine struct {
	client Client
	log    *slog.Logger
}

// NewEngine wraps a remote extraction client.
func NewEngine(client Client, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		client: client,
		log:    log.With("component", "extract.engine"),
	}
}

// Extract performs one remote classification/extraction call. It never
// returns an error: an unreachable service or an unparseable payload both
// yield an inquiry draft with empty items and a clarifying reply.
func (e *Engine) Extract(ctx context.Context, text string, extra map[string]string) Result {
	raw, err := e.client.Complete(ctx, systemPrompt, userPrompt(text, extra))
	if err != nil {
		e.log.Warn("Extraction call failed", "error", err)
		return fallbackResult(unavailableReply, OutcomeUnavailable)
	}

	result, err := decodePayload(raw)
	if err != nil {
		e.log.Warn("Extraction payload malformed", "error", err)
		return fallbackResult(malformedReply, OutcomeMalformed)
	}

	return result
}

// fallbackResult builds the fixed empty-draft shape shared by both failure
// modes. Intent inquiry keeps the draft informational only.
func fallbackResult(reply string, outcome Outcome) Result {
	return Result{
		ReplyText: reply,
		Draft:     OrderDraft{Intent: IntentInquiry},
		Outcome:   outcome,
	}
}
