// Package orders decides what backend action a classified message triggers
// and authors the user-facing replies.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chavito/pkg/backend"
	"chavito/pkg/extract"
)

// Extractor turns free-form text into a classified order draft.
type Extractor interface {
	Extract(ctx context.Context, text string, extra map[string]string) extract.Result
}

// Gateway is the backend boundary. Every operation resolves to a value;
// failures never propagate as errors.
type Gateway interface {
	CreateOrder(ctx context.Context, userID string, draft extract.OrderDraft) backend.CreateOrderResult
	QueryStatus(ctx context.Context, userID string) backend.StatusResult
	Escalate(ctx context.Context, userID string, text string) bool
}

// Orchestrator runs one pass of the intake state machine per inbound message.
// It holds no per-conversation state across messages.
type Orchestrator struct {
	extractor Extractor
	gateway   Gateway
	log       *slog.Logger
}

// New wires the orchestrator.
func New(extractor Extractor, gateway Gateway, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		extractor: extractor,
		gateway:   gateway,
		log:       log.With("component", "orders"),
	}
}

// Handle processes one inbound message and returns the ordered reply
// messages to deliver. It never returns an empty slice and never panics on
// backend failure; every failure mode resolves to reply text.
func (o *Orchestrator) Handle(ctx context.Context, userID string, text string) []string {
	trimmed := strings.TrimSpace(text)

	switch {
	case matchesEscalation(trimmed):
		return o.escalate(ctx, userID, trimmed)
	case matchesGreeting(trimmed):
		return []string{welcomeText}
	case matchesStatusKeyword(trimmed):
		return []string{o.statusOverview(ctx, userID)}
	}

	result := o.extractor.Extract(ctx, trimmed, map[string]string{"origen": "chavito"})
	replies := []string{result.ReplyText}

	switch result.Draft.Intent {
	case extract.IntentOrder:
		if !result.Draft.Orderable() {
			// The engine's reply already asks for the missing data.
			return replies
		}
		return append(replies, o.createOrder(ctx, userID, result.Draft))
	case extract.IntentStatus:
		return append(replies, o.latestOrderSummary(ctx, userID))
	default:
		return replies
	}
}

// createOrder attempts backend creation once and words the outcome.
func (o *Orchestrator) createOrder(ctx context.Context, userID string, draft extract.OrderDraft) string {
	created := o.gateway.CreateOrder(ctx, userID, draft)
	if !created.OK {
		o.log.Warn("Order creation failed, asking user to resend", "user_id", userID)
		return createFailedText
	}

	o.log.Info("Order created", "user_id", userID, "order_id", created.OrderID, "has_payment_link", created.PaymentLink != "")

	if created.PaymentLink != "" {
		return fmt.Sprintf(confirmationWithPaymentText, created.OrderID, created.PaymentLink)
	}

	return fmt.Sprintf(confirmationText, created.OrderID)
}

// latestOrderSummary words the single most recent order, or the no-orders
// fallback.
func (o *Orchestrator) latestOrderSummary(ctx context.Context, userID string) string {
	status := o.gateway.QueryStatus(ctx, userID)
	if !status.OK || len(status.Orders) == 0 {
		return noRecentOrdersText
	}

	latest := status.Orders[0]
	return fmt.Sprintf(latestOrderText, latest.ID, latest.Facility, latest.InmateRef, latest.State)
}

// statusOverview lists up to three recent orders for the keyword shortcut.
func (o *Orchestrator) statusOverview(ctx context.Context, userID string) string {
	status := o.gateway.QueryStatus(ctx, userID)
	if !status.OK || len(status.Orders) == 0 {
		return noRecentOrdersShortText
	}

	orders := status.Orders
	if len(orders) > 3 {
		orders = orders[:3]
	}

	var b strings.Builder
	b.WriteString("Estos son tus últimos pedidos:\n")
	for _, order := range orders {
		fmt.Fprintf(&b, "\n🧾 Pedido N° %s – Estado: %s", order.ID, order.State)
	}

	return b.String()
}

// escalate hands the conversation to a human. The acknowledgment is fixed:
// a gateway failure is logged but must not stall the handoff.
func (o *Orchestrator) escalate(ctx context.Context, userID string, text string) []string {
	if !o.gateway.Escalate(ctx, userID, text) {
		o.log.Error("Escalation did not reach the backend", "user_id", userID)
	}

	return []string{escalationIntroText, escalationAckText}
}
