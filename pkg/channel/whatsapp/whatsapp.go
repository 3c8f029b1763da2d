// Package whatsapp bridges a WhatsApp HTTP gateway into Chavito. The gateway
// (the piece that actually speaks the WhatsApp protocol and handles QR
// pairing) POSTs inbound events to this adapter's webhook and exposes a send
// endpoint for outbound text.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"chavito/pkg/bus"
	"chavito/pkg/channel"
	"chavito/pkg/config"
)

const channelName = "whatsapp"
const defaultHost = "0.0.0.0"
const defaultPort = 18791

// Adapter runs the inbound webhook server and sends replies through the
// gateway's HTTP API.
type Adapter struct {
	cfg       config.WhatsAppConfig
	allowFrom map[string]struct{}
	client    *http.Client
	log       *slog.Logger
}

// inboundEvent is the webhook body the WhatsApp gateway delivers.
type inboundEvent struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// NewAdapter validates WhatsApp bridge configuration and constructs an
// adapter instance.
func NewAdapter(cfg config.WhatsAppConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.SendURL) == "" {
		return nil, errors.New("channels.whatsapp.send_url is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log.With("component", "channel.whatsapp"),
	}, nil
}

// Name returns the channel identifier used in logs and metadata.
func (a *Adapter) Name() string {
	return channelName
}

// Run serves the inbound webhook until the context is canceled.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	host := strings.TrimSpace(a.cfg.Host)
	if host == "" {
		host = defaultHost
	}
	port := a.cfg.Port
	if port <= 0 {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", func(w http.ResponseWriter, r *http.Request) {
		a.handleWebhook(ctx, w, r, handler)
	})

	server := &http.Server{
		Addr:              host + ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.log.Info("WhatsApp webhook started", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve whatsapp webhook: %w", err)
	}

	return nil
}

// handleWebhook accepts one inbound event and hands it to the dispatcher via
// the handler. The webhook responds 202 as soon as the message is queued.
func (a *Adapter) handleWebhook(ctx context.Context, w http.ResponseWriter, r *http.Request, handler channel.Handler) {
	var event inboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	userID := strings.TrimSpace(event.From)
	text := strings.TrimSpace(event.Body)
	if userID == "" || text == "" {
		http.Error(w, "from and body are required", http.StatusBadRequest)
		return
	}

	if !a.senderAllowed(userID) {
		a.log.Debug("Ignoring message from unauthorized sender", "user_id", userID)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	inbound := bus.InboundMessage{
		Channel:    channelName,
		UserID:     userID,
		Text:       text,
		ReceivedAt: time.Now().UTC(),
		Metadata: map[string]string{
			"event_id": uuid.NewString(),
		},
	}
	a.log.Info("Received message", "user_id", userID, "event_id", inbound.Metadata["event_id"])

	reply := &replier{adapter: a, userID: userID}
	if err := handler(ctx, inbound, reply); err != nil {
		a.log.Error("Failed to accept inbound message", "user_id", userID, "error", err)
		http.Error(w, "failed to accept message", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// replier delivers reply chunks to one user through the gateway send API.
type replier struct {
	adapter *Adapter
	userID  string
}

type outboundEvent struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (r *replier) Send(ctx context.Context, text string) error {
	if err := r.adapter.postJSON(ctx, r.adapter.cfg.SendURL, outboundEvent{To: r.userID, Body: text}); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}

	return nil
}

// Typing posts a best-effort presence signal when the bridge exposes one.
func (r *replier) Typing(ctx context.Context) {
	presenceURL := strings.TrimSpace(r.adapter.cfg.PresenceURL)
	if presenceURL == "" {
		return
	}

	if err := r.adapter.postJSON(ctx, presenceURL, outboundEvent{To: r.userID, Body: "composing"}); err != nil && ctx.Err() == nil {
		r.adapter.log.Debug("Failed to send presence signal", "user_id", r.userID, "error", err)
	}
}

func (a *Adapter) postJSON(ctx context.Context, endpoint string, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if token := strings.TrimSpace(a.cfg.Token); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := a.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", response.StatusCode)
	}

	return nil
}

// senderAllowed checks whether a sender is permitted by allow_from config.
func (a *Adapter) senderAllowed(userID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(userID)]
	return ok
}

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
