// Package backend wraps the Chavito order backend's WhatsApp-facing HTTP API.
//
// Every operation is a single request/response with no retry. Network and
// protocol errors are converted to failure values at this boundary; they are
// logged for operators and never surface as errors to callers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chavito/pkg/extract"
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to the Chavito order backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// CreateOrderResult reports one order-creation attempt. OrderID and
// PaymentLink are only meaningful when OK is true.
type CreateOrderResult struct {
	OK          bool
	OrderID     string
	PaymentLink string
}

// OrderStatus is one order row from the status endpoint.
type OrderStatus struct {
	ID        string
	Facility  string
	InmateRef string
	State     string
}

// StatusResult reports one status query. Orders are ordered most recent
// first, as the backend returns them.
type StatusResult struct {
	OK     bool
	Orders []OrderStatus
}

// New validates backend configuration and constructs a client.
func New(baseURL string, requestTimeoutSeconds int, log *slog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}

	if log == nil {
		log = slog.Default()
	}

	timeout := time.Duration(requestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "backend"),
	}, nil
}

type createOrderRequest struct {
	WhatsApp  string         `json:"whatsapp"`
	Type      string         `json:"tipo"`
	Facility  string         `json:"penal"`
	InmateRef string         `json:"interno"`
	Products  []extract.Item `json:"productos"`
	Notes     string         `json:"observaciones"`
}

type createOrderResponse struct {
	OK          bool        `json:"ok"`
	OrderID     json.Number `json:"pedidoId"`
	PaymentLink string      `json:"mp_link"`
}

// CreateOrder submits a draft as a new order for the given user.
func (c *Client) CreateOrder(ctx context.Context, userID string, draft extract.OrderDraft) CreateOrderResult {
	body := createOrderRequest{
		WhatsApp:  userID,
		Type:      "pedido",
		Facility:  draft.Facility,
		InmateRef: draft.InmateRef,
		Products:  draft.Items,
		Notes:     draft.Notes,
	}

	var response createOrderResponse
	if err := c.post(ctx, "/api/whatsapp/pedidos", body, &response); err != nil {
		c.log.Warn("Create order failed", "user_id", userID, "error", err)
		return CreateOrderResult{}
	}
	if !response.OK {
		c.log.Warn("Create order rejected by backend", "user_id", userID)
		return CreateOrderResult{}
	}

	orderID := strings.TrimSpace(response.OrderID.String())
	if orderID == "" {
		c.log.Warn("Create order response missing pedidoId", "user_id", userID)
		return CreateOrderResult{}
	}

	return CreateOrderResult{
		OK:          true,
		OrderID:     orderID,
		PaymentLink: strings.TrimSpace(response.PaymentLink),
	}
}

type statusResponse struct {
	OK     bool `json:"ok"`
	Orders []struct {
		ID        json.Number `json:"id"`
		Facility  string      `json:"penal"`
		InmateRef string      `json:"interno"`
		State     string      `json:"estado"`
	} `json:"pedidos"`
}

// QueryStatus fetches the user's recent orders, most recent first.
func (c *Client) QueryStatus(ctx context.Context, userID string) StatusResult {
	endpoint := c.baseURL + "/api/whatsapp/pedidos/estado?whatsapp=" + url.QueryEscape(userID)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Warn("Query status failed", "user_id", userID, "error", err)
		return StatusResult{}
	}

	var response statusResponse
	if err := c.do(request, &response); err != nil {
		c.log.Warn("Query status failed", "user_id", userID, "error", err)
		return StatusResult{}
	}
	if !response.OK {
		return StatusResult{}
	}

	result := StatusResult{OK: true}
	for _, order := range response.Orders {
		result.Orders = append(result.Orders, OrderStatus{
			ID:        strings.TrimSpace(order.ID.String()),
			Facility:  order.Facility,
			InmateRef: order.InmateRef,
			State:     order.State,
		})
	}

	return result
}

type escalateRequest struct {
	WhatsApp string `json:"whatsapp"`
	Message  string `json:"mensaje"`
}

// Escalate flags the conversation for a human operator. The acknowledgment
// body is not constrained, so only transport success matters.
func (c *Client) Escalate(ctx context.Context, userID string, text string) bool {
	if err := c.post(ctx, "/api/whatsapp/derivar", escalateRequest{WhatsApp: userID, Message: text}, nil); err != nil {
		c.log.Warn("Escalation failed", "user_id", userID, "error", err)
		return false
	}

	return true
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	return c.do(request, out)
}

func (c *Client) do(request *http.Request, out any) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("backend returned status %d", response.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
