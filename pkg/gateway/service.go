package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"chavito/pkg/backend"
	"chavito/pkg/bus"
	"chavito/pkg/channel"
	"chavito/pkg/compose"
	"chavito/pkg/config"
	"chavito/pkg/dispatch"
	"chavito/pkg/extract"
	"chavito/pkg/orders"
)

const (
	defaultHealthHost = "0.0.0.0"
	defaultHealthPort = 18790
)

// conversationHandler runs one inbound message through the intake pipeline
// and returns the ordered reply messages.
type conversationHandler interface {
	Handle(ctx context.Context, userID string, text string) []string
}

// Service owns the running bot: channels feed the per-user dispatcher, the
// dispatcher feeds the orchestrator, and replies flow back through each
// channel's replier as composed chunks.
type Service struct {
	cfg        *config.Config
	log        *slog.Logger
	extractor  extract.Client
	orders     conversationHandler
	dispatcher *dispatch.Dispatcher
	channels   []channel.Adapter

	mu                 sync.RWMutex
	startedAt          time.Time
	extractionLastOKAt time.Time
	extractionLastErr  string
	channelStates      map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status             string                  `json:"status"`
	UptimeSeconds      int64                   `json:"uptime_seconds"`
	ActiveUsers        int                     `json:"active_users"`
	ExtractionLastOKAt string                  `json:"extraction_last_ok_at,omitempty"`
	ExtractionLastErr  string                  `json:"extraction_last_error,omitempty"`
	Channels           map[string]channelState `json:"channels"`
}

// NewService wires the intake pipeline from configuration.
func NewService(cfg *config.Config, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := extract.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize extraction client: %w", err)
	}

	gateway, err := backend.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeoutSeconds, log)
	if err != nil {
		return nil, fmt.Errorf("initialize backend client: %w", err)
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		extractor:     client,
		orders:        orders.New(extract.NewEngine(client, log), gateway, log),
		dispatcher:    dispatch.New(log),
		channels:      adapters,
		channelStates: channelStates,
	}, nil
}

// Run starts the channels and the status server and blocks until the context
// is canceled or a component fails. In-flight per-user tasks get to finish
// before Run returns.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.checkExtractionHealth(ctx); err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.checkExtractionHealth(ctx)
			}
		}
	}()

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		adapter := adapter
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, s.handleInbound)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.dispatcher.Wait()
		return nil
	case err := <-serverErrors:
		s.dispatcher.Wait()
		return err
	case err := <-errCh:
		s.dispatcher.Wait()
		return err
	}
}

// handleInbound queues one message on the sender's ordered queue and returns
// immediately so channel loops never block behind processing.
func (s *Service) handleInbound(ctx context.Context, inbound bus.InboundMessage, reply channel.Replier) error {
	s.dispatcher.Enqueue(ctx, inbound.UserID, func(taskCtx context.Context) {
		s.processMessage(taskCtx, inbound, reply)
	})

	return nil
}

// processMessage runs the full pipeline for one message: presence signal,
// orchestration, composition, sequential delivery.
func (s *Service) processMessage(ctx context.Context, inbound bus.InboundMessage, reply channel.Replier) {
	reply.Typing(ctx)

	for _, message := range s.orders.Handle(ctx, inbound.UserID, inbound.Text) {
		for _, chunk := range compose.Split(message) {
			if err := reply.Send(ctx, chunk); err != nil {
				s.log.Error("Failed to deliver reply chunk", "channel", inbound.Channel, "user_id", inbound.UserID, "error", err)
				return
			}
		}
	}
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHealthHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultHealthPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	extractionLastOK := ""
	if !s.extractionLastOKAt.IsZero() {
		extractionLastOK = s.extractionLastOKAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:             status,
		UptimeSeconds:      uptime,
		ActiveUsers:        s.dispatcher.ActiveUsers(),
		ExtractionLastOKAt: extractionLastOK,
		ExtractionLastErr:  s.extractionLastErr,
		Channels:           channels,
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.channelStates) == 0 {
		return false
	}

	anyRunning := false
	for _, state := range s.channelStates {
		if state.Running {
			anyRunning = true
			break
		}
	}

	if !anyRunning {
		return false
	}

	if s.extractionLastOKAt.IsZero() {
		return false
	}

	if s.extractionLastErr != "" {
		return false
	}

	return true
}

func (s *Service) checkExtractionHealth(ctx context.Context) error {
	if err := s.extractor.Health(ctx); err != nil {
		s.mu.Lock()
		s.extractionLastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("extraction health check failed: %w", err)
	}

	s.mu.Lock()
	s.extractionLastErr = ""
	s.extractionLastOKAt = time.Now().UTC()
	s.mu.Unlock()

	return nil
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
