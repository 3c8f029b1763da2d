package channel

import (
	"context"

	"chavito/pkg/bus"
)

// Replier delivers ordered reply chunks to the user an inbound message came
// from. Send is sequential per user; chunk order must match call order.
type Replier interface {
	// Send delivers one chunk of reply text.
	Send(ctx context.Context, text string) error

	// Typing emits a best-effort presence signal. Failures are swallowed
	// by the adapter and must never abort message handling.
	Typing(ctx context.Context)
}

// Handler accepts one inbound message together with the replier bound to its
// sender. Handlers are expected to return quickly; processing happens on the
// dispatcher's per-user queues.
type Handler func(ctx context.Context, msg bus.InboundMessage, reply Replier) error

// Adapter bridges one external transport (WhatsApp, Telegram) into Chavito.
type Adapter interface {
	Name() string
	Run(ctx context.Context, handler Handler) error
}
