package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeClient struct {
	response string
	err      error

	systems []string
	users   []string
}

func (f *fakeClient) Health(context.Context) error {
	return nil
}

func (f *fakeClient) Complete(_ context.Context, system string, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractDecodesRemotePayload(t *testing.T) {
	t.Parallel()

	client := &fakeClient{response: `{
		"respuesta_chavito": "Listo, te armo el pedido.",
		"pedido": {"tipo": "pedido", "penal": "Unidad 28", "productos": [{"nombre": "yerba", "cantidad": 1}]}
	}`}
	engine := NewEngine(client, nil)

	result := engine.Extract(context.Background(), "quiero mandar yerba a la unidad 28", nil)

	if result.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %d, want OutcomeOK", result.Outcome)
	}
	if result.Draft.Intent != IntentOrder || len(result.Draft.Items) != 1 {
		t.Fatalf("Draft = %+v", result.Draft)
	}

	if len(client.users) != 1 || !strings.Contains(client.users[0], "unidad 28") {
		t.Fatalf("user prompt = %q", client.users)
	}
	if !strings.Contains(client.systems[0], "respuesta_chavito") {
		t.Fatal("system prompt missing JSON contract")
	}
}

func TestExtractServiceUnavailableFallback(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("connection refused")}
	engine := NewEngine(client, nil)

	result := engine.Extract(context.Background(), "hola", nil)

	if result.Outcome != OutcomeUnavailable {
		t.Fatalf("Outcome = %d, want OutcomeUnavailable", result.Outcome)
	}
	if result.ReplyText == "" {
		t.Fatal("fallback ReplyText is empty")
	}
	if result.Draft.Intent != IntentInquiry || len(result.Draft.Items) != 0 {
		t.Fatalf("fallback draft = %+v", result.Draft)
	}
	if result.Draft.Facility != "" || result.Draft.InmateRef != "" || result.Draft.Notes != "" {
		t.Fatalf("fallback draft has populated optional fields: %+v", result.Draft)
	}
}

func TestExtractMalformedPayloadFallback(t *testing.T) {
	t.Parallel()

	client := &fakeClient{response: "I cannot answer in JSON, sorry"}
	engine := NewEngine(client, nil)

	result := engine.Extract(context.Background(), "hola", nil)

	if result.Outcome != OutcomeMalformed {
		t.Fatalf("Outcome = %d, want OutcomeMalformed", result.Outcome)
	}
	if result.ReplyText == "" {
		t.Fatal("fallback ReplyText is empty")
	}
	if result.Draft.Intent != IntentInquiry || len(result.Draft.Items) != 0 {
		t.Fatalf("fallback draft = %+v", result.Draft)
	}
}

func TestExtractFallbacksDiffer(t *testing.T) {
	t.Parallel()

	unavailable := NewEngine(&fakeClient{err: errors.New("down")}, nil).Extract(context.Background(), "x", nil)
	malformed := NewEngine(&fakeClient{response: "{"}, nil).Extract(context.Background(), "x", nil)

	if unavailable.ReplyText == malformed.ReplyText {
		t.Fatal("unavailable and malformed fallbacks should read differently")
	}
}

func TestExtractOrderWithoutItemsIsReturnedAsIs(t *testing.T) {
	t.Parallel()

	client := &fakeClient{response: `{
		"respuesta_chavito": "¿Qué productos querés mandar?",
		"pedido": {"tipo": "pedido", "penal": "Unidad 9", "productos": []}
	}`}
	engine := NewEngine(client, nil)

	result := engine.Extract(context.Background(), "quiero mandar algo a la unidad 9", nil)

	if result.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %d, want OutcomeOK", result.Outcome)
	}
	if result.Draft.Intent != IntentOrder {
		t.Fatalf("Intent = %q, want order", result.Draft.Intent)
	}
	if result.Draft.Orderable() {
		t.Fatal("order without items must not be orderable")
	}
}

func TestUserPromptEmbedsContext(t *testing.T) {
	t.Parallel()

	prompt := userPrompt("hola", map[string]string{"origen": "webhook"})
	if !strings.Contains(prompt, `"hola"`) {
		t.Fatalf("prompt missing message: %q", prompt)
	}
	if !strings.Contains(prompt, "webhook") {
		t.Fatalf("prompt missing context: %q", prompt)
	}

	empty := userPrompt("hola", nil)
	if !strings.Contains(empty, "{}") {
		t.Fatalf("empty context prompt = %q", empty)
	}
}
