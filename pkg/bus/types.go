package bus

import "time"

// InboundMessage is one raw text event received from a chat transport.
//
// UserID is the opaque stable sender identifier the transport provides
// (a WhatsApp number, a Telegram chat id). Immutable once created.
type InboundMessage struct {
	Channel    string            `json:"channel"`
	UserID     string            `json:"user_id"`
	Text       string            `json:"text"`
	ReceivedAt time.Time         `json:"received_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage is one delivery chunk headed back to a transport.
type OutboundMessage struct {
	Channel string `json:"channel"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}
