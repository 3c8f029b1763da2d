package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Wire shapes of the remote extraction payload. Field names follow the
// Spanish contract the model is instructed to emit.
type wirePayload struct {
	Reply string    `json:"respuesta_chavito"`
	Order wireOrder `json:"pedido"`
}

type wireOrder struct {
	Type      *string       `json:"tipo"`
	Facility  *string       `json:"penal"`
	InmateRef *string       `json:"interno"`
	Products  []wireProduct `json:"productos"`
	Notes     *string       `json:"observaciones"`
}

type wireProduct struct {
	Name     string  `json:"nombre"`
	Quantity float64 `json:"cantidad"`
}

// decodePayload parses the raw remote response into a Result, or reports why
// it cannot. Callers branch on the returned error instead of catching parse
// exceptions somewhere downstream.
func decodePayload(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{}, errors.New("empty payload")
	}

	var payload wirePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Result{}, fmt.Errorf("parse payload: %w", err)
	}

	reply := strings.TrimSpace(payload.Reply)
	if reply == "" {
		return Result{}, errors.New("payload has no respuesta_chavito text")
	}

	return Result{
		ReplyText: reply,
		Draft:     decodeDraft(payload.Order),
		Outcome:   OutcomeOK,
	}, nil
}

func decodeDraft(order wireOrder) OrderDraft {
	draft := OrderDraft{
		Intent:    intentFromType(stringValue(order.Type)),
		Facility:  stringValue(order.Facility),
		InmateRef: stringValue(order.InmateRef),
		Notes:     stringValue(order.Notes),
	}

	for _, product := range order.Products {
		name := strings.TrimSpace(product.Name)
		if name == "" {
			continue
		}

		quantity := int(product.Quantity)
		if quantity < 1 {
			quantity = 1
		}

		draft.Items = append(draft.Items, Item{Name: name, Quantity: quantity})
	}

	return draft
}

// intentFromType maps the wire "tipo" values onto intents. Unknown values
// degrade to inquiry so the draft stays informational.
func intentFromType(value string) Intent {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pedido":
		return IntentOrder
	case "estado":
		return IntentStatus
	default:
		return IntentInquiry
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}

	return strings.TrimSpace(*value)
}
