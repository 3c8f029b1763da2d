package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"chavito/pkg/bus"
	"chavito/pkg/channel"
	"chavito/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// Adapter bridges Telegram updates into Chavito inbound messages. Replies
// are delivered chunk by chunk through the bound replier, in order.
type Adapter struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
}

// NewAdapter validates Telegram configuration and constructs an adapter instance.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in logs and metadata.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and forwards messages to the handler.
// The handler is expected to hand work to the dispatcher and return, so the
// polling loop never blocks behind one user's processing.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(a.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil {
				continue
			}

			text := strings.TrimSpace(message.Text)
			if text == "" {
				// Ignore non-text updates; the pipeline only understands text.
				continue
			}
			if message.From == nil {
				a.log.Debug("Ignoring message without sender")
				continue
			}

			senderID := strconv.FormatInt(message.From.ID, 10)
			if !a.senderAllowed(senderID) {
				a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
				continue
			}

			userID := strconv.FormatInt(message.Chat.ID, 10)
			inbound := bus.InboundMessage{
				Channel:    channelName,
				UserID:     userID,
				Text:       text,
				ReceivedAt: time.Now().UTC(),
				Metadata: map[string]string{
					"update_id": strconv.Itoa(update.UpdateID),
					"sender_id": senderID,
				},
			}
			a.log.Info("Received message", "user_id", userID, "content", previewText(text))

			reply := &replier{bot: bot, chatID: message.Chat.ID, userID: userID, log: a.log}
			if err := handler(ctx, inbound, reply); err != nil {
				a.log.Error("Failed to accept inbound message", "user_id", userID, "error", err)
			}
		}
	}
}

// replier delivers reply chunks back to one Telegram chat.
type replier struct {
	bot    *telego.Bot
	chatID int64
	userID string
	log    *slog.Logger
}

func (r *replier) Send(ctx context.Context, text string) error {
	r.log.Info("Sending message", "user_id", r.userID, "content", previewText(text))

	if _, err := r.bot.SendMessage(ctx, tu.Message(tu.ID(r.chatID), text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

func (r *replier) Typing(ctx context.Context) {
	if err := r.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(r.chatID), telego.ChatActionTyping)); err != nil && ctx.Err() == nil {
		r.log.Debug("Failed to send typing indicator", "user_id", r.userID, "error", err)
	}
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
